package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/catalogsync/internal/catalog"
	"github.com/IshaanNene/catalogsync/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var (
	categoryCols = []string{"id", "parent_id", "name", "slug", "full_slug", "level", "created_at", "updated_at"}
	productCols  = []string{
		"id", "external_id", "name", "description", "price", "original_price", "sku",
		"is_available", "category_id", "brand_id", "created_at", "updated_at",
	}
)

func newPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewPostgresStore(sqlx.NewDb(mockDB, "postgres"), testLogger), mock
}

func TestPostgresFirstOrCreateCategoryNew(t *testing.T) {
	store, mock := newPostgresStore(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO categories").
		WithArgs(nil, "Ноутбуки", "noutbuki", "noutbuki", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM categories WHERE name").
		WithArgs("Ноутбуки").
		WillReturnRows(sqlmock.NewRows(categoryCols).
			AddRow(7, nil, "Ноутбуки", "noutbuki", "noutbuki", 1, now, now))

	got, err := store.FirstOrCreateCategory(context.Background(), &catalog.Category{
		Name: "Ноутбуки", Slug: "noutbuki", FullSlug: "noutbuki", Level: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Nil(t, got.ParentID)
	assert.Equal(t, "noutbuki", got.FullSlug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFirstOrCreateCategoryExisting(t *testing.T) {
	store, mock := newPostgresStore(t)
	now := time.Now()
	parent := int64(3)

	// ON CONFLICT DO NOTHING affects no rows for an existing name.
	mock.ExpectExec("INSERT INTO categories").
		WithArgs(&parent, "Игровые", "igrovye", "noutbuki/igrovye", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM categories WHERE name").
		WithArgs("Игровые").
		WillReturnRows(sqlmock.NewRows(categoryCols).
			AddRow(9, 3, "Игровые", "igrovye", "noutbuki/igrovye", 2, now, now))

	got, err := store.FirstOrCreateCategory(context.Background(), &catalog.Category{
		ParentID: &parent, Name: "Игровые", Slug: "igrovye", FullSlug: "noutbuki/igrovye", Level: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, int64(3), *got.ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindCategoryMissing(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectQuery("SELECT .+ FROM categories WHERE id").
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	got, err := store.FindCategory(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateCategoryNotFound(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectExec("UPDATE categories").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateCategory(context.Background(), &catalog.Category{ID: 5, Name: "x", Slug: "x", FullSlug: "x", Level: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)

	var se *types.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "postgres", se.Backend)
	assert.Equal(t, "update category", se.Op)
}

func TestPostgresFindProductByExternalID(t *testing.T) {
	store, mock := newPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM products WHERE external_id").
		WithArgs("A-100").
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(11, "A-100", "Ноутбук", "<p>desc</p>", 49990.0, 55000.0, nil, true, 7, 2, now, now))

	p, err := store.FindProductByExternalID(context.Background(), "A-100")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(11), p.ID)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 49990.0, *p.Price, 0.001)
	assert.Nil(t, p.SKU)
	require.NotNil(t, p.BrandID)
	assert.Equal(t, int64(2), *p.BrandID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateProductReturnsID(t *testing.T) {
	store, mock := newPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO products").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(21, now, now))

	ext := "B-7"
	p := &catalog.Product{ExternalID: &ext, Name: "Монитор", IsAvailable: true, CategoryID: 7}
	require.NoError(t, store.CreateProduct(context.Background(), p))
	assert.Equal(t, int64(21), p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateProductCommerce(t *testing.T) {
	store, mock := newPostgresStore(t)
	price := 100.0

	mock.ExpectExec("UPDATE products").
		WithArgs(int64(21), &price, nil, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateProductCommerce(context.Background(), 21, catalog.CommerceUpdate{Price: &price})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFirstOrCreateAttribute(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectExec("INSERT INTO attribute_groups").
		WithArgs("Экран").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name FROM attribute_groups").
		WithArgs("Экран").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(4, "Экран"))
	mock.ExpectExec("INSERT INTO attributes").
		WithArgs(int64(4), "Диагональ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, attribute_group_id, name FROM attributes").
		WithArgs(int64(4), "Диагональ").
		WillReturnRows(sqlmock.NewRows([]string{"id", "attribute_group_id", "name"}).AddRow(8, 4, "Диагональ"))

	ctx := context.Background()
	g, err := store.FirstOrCreateAttributeGroup(ctx, "Экран")
	require.NoError(t, err)
	a, err := store.FirstOrCreateAttribute(ctx, g.ID, "Диагональ")
	require.NoError(t, err)
	assert.Equal(t, int64(8), a.ID)
	assert.Equal(t, int64(4), a.AttributeGroupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertFailureIsStorageError(t *testing.T) {
	store, mock := newPostgresStore(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery("INSERT INTO images").WillReturnError(boom)

	err := store.CreateImage(context.Background(), &catalog.Image{ProductID: 1, URL: "https://2cent.ru/a.jpg"})
	var se *types.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert image", se.Op)
	assert.ErrorIs(t, err, boom)
}

func TestPostgresEnsureSchema(t *testing.T) {
	store, mock := newPostgresStore(t)

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
