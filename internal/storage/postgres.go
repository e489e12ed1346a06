package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/IshaanNene/catalogsync/internal/catalog"
	"github.com/IshaanNene/catalogsync/internal/types"
)

const postgresBackend = "postgres"

// schema is applied when storage.auto_schema is set. Unique constraints back
// the ON CONFLICT clauses of the FirstOrCreate queries.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id         BIGSERIAL PRIMARY KEY,
		parent_id  BIGINT REFERENCES categories(id) ON DELETE SET NULL,
		name       TEXT NOT NULL UNIQUE,
		slug       TEXT NOT NULL,
		full_slug  TEXT NOT NULL,
		level      INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS brands (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		slug       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id             BIGSERIAL PRIMARY KEY,
		external_id    TEXT UNIQUE,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		price          NUMERIC(12,2),
		original_price NUMERIC(12,2),
		sku            TEXT,
		is_available   BOOLEAN NOT NULL DEFAULT TRUE,
		category_id    BIGINT NOT NULL REFERENCES categories(id),
		brand_id       BIGINT REFERENCES brands(id),
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS images (
		id         BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		url        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attribute_groups (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS attributes (
		id                 BIGSERIAL PRIMARY KEY,
		attribute_group_id BIGINT NOT NULL REFERENCES attribute_groups(id) ON DELETE CASCADE,
		name               TEXT NOT NULL,
		UNIQUE (attribute_group_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS product_attributes (
		product_id   BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		attribute_id BIGINT NOT NULL REFERENCES attributes(id) ON DELETE CASCADE,
		value        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_attributes_product ON product_attributes (product_id)`,
}

const (
	categoryColumns = `id, parent_id, name, slug, full_slug, level, created_at, updated_at`
	productColumns  = `id, external_id, name, description, price, original_price, sku,
	is_available, category_id, brand_id, created_at, updated_at`
)

// PostgresStore is a catalog.Store backed by PostgreSQL.
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, pgErr("open", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, pgErr("ping", err)
	}
	return NewPostgresStore(db, logger), nil
}

// NewPostgresStore wraps an existing connection.
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.With("component", "postgres_store"),
	}
}

func (s *PostgresStore) Name() string { return postgresBackend }

func (s *PostgresStore) Close() error { return s.db.Close() }

// EnsureSchema creates the catalog tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return pgErr("ensure schema", err)
		}
	}
	s.logger.Info("schema ready", "statements", len(schema))
	return nil
}

func (s *PostgresStore) FindCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	var c catalog.Category
	err := s.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pgErr("find category", err)
	}
	return &c, nil
}

func (s *PostgresStore) FindCategoryByName(ctx context.Context, name string) (*catalog.Category, error) {
	var c catalog.Category
	err := s.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pgErr("find category by name", err)
	}
	return &c, nil
}

// FirstOrCreateCategory uses INSERT ... ON CONFLICT DO NOTHING then SELECT.
func (s *PostgresStore) FirstOrCreateCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error) {
	insert := `INSERT INTO categories (parent_id, name, slug, full_slug, level)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, insert, c.ParentID, c.Name, c.Slug, c.FullSlug, c.Level); err != nil {
		return nil, pgErr("insert category", err)
	}

	var stored catalog.Category
	if err := s.db.GetContext(ctx, &stored, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, c.Name); err != nil {
		return nil, pgErr("select category", err)
	}
	return &stored, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	query := `UPDATE categories
		SET parent_id = $2, name = $3, slug = $4, full_slug = $5, level = $6, updated_at = NOW()
		WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, c.ID, c.ParentID, c.Name, c.Slug, c.FullSlug, c.Level)
	return execRequireRows("update category", result, err, fmt.Errorf("category %d: %w", c.ID, types.ErrNotFound))
}

func (s *PostgresStore) FirstOrCreateBrand(ctx context.Context, name, slug string) (*catalog.Brand, error) {
	insert := `INSERT INTO brands (name, slug) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, insert, name, slug); err != nil {
		return nil, pgErr("insert brand", err)
	}

	var b catalog.Brand
	if err := s.db.GetContext(ctx, &b, `SELECT id, name, slug, created_at FROM brands WHERE name = $1`, name); err != nil {
		return nil, pgErr("select brand", err)
	}
	return &b, nil
}

func (s *PostgresStore) FindProductByExternalID(ctx context.Context, externalID string) (*catalog.Product, error) {
	var p catalog.Product
	err := s.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE external_id = $1`, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pgErr("find product", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p *catalog.Product) error {
	query := `INSERT INTO products
		(external_id, name, description, price, original_price, sku, is_available, category_id, brand_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	row := s.db.QueryRowxContext(ctx, query,
		p.ExternalID, p.Name, p.Description, p.Price, p.OriginalPrice,
		p.SKU, p.IsAvailable, p.CategoryID, p.BrandID,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return pgErr("insert product", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProductCommerce(ctx context.Context, id int64, u catalog.CommerceUpdate) error {
	query := `UPDATE products
		SET price = $2, original_price = $3, is_available = $4, updated_at = NOW()
		WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id, u.Price, u.OriginalPrice, u.IsAvailable)
	return execRequireRows("update product", result, err, fmt.Errorf("product %d: %w", id, types.ErrNotFound))
}

func (s *PostgresStore) CreateImage(ctx context.Context, img *catalog.Image) error {
	row := s.db.QueryRowxContext(ctx,
		`INSERT INTO images (product_id, url) VALUES ($1, $2) RETURNING id`,
		img.ProductID, img.URL,
	)
	if err := row.Scan(&img.ID); err != nil {
		return pgErr("insert image", err)
	}
	return nil
}

func (s *PostgresStore) FirstOrCreateAttributeGroup(ctx context.Context, name string) (*catalog.AttributeGroup, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO attribute_groups (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name,
	); err != nil {
		return nil, pgErr("insert attribute group", err)
	}

	var g catalog.AttributeGroup
	if err := s.db.GetContext(ctx, &g, `SELECT id, name FROM attribute_groups WHERE name = $1`, name); err != nil {
		return nil, pgErr("select attribute group", err)
	}
	return &g, nil
}

func (s *PostgresStore) FirstOrCreateAttribute(ctx context.Context, groupID int64, name string) (*catalog.Attribute, error) {
	insert := `INSERT INTO attributes (attribute_group_id, name) VALUES ($1, $2)
		ON CONFLICT (attribute_group_id, name) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, insert, groupID, name); err != nil {
		return nil, pgErr("insert attribute", err)
	}

	var a catalog.Attribute
	err := s.db.GetContext(ctx, &a,
		`SELECT id, attribute_group_id, name FROM attributes WHERE attribute_group_id = $1 AND name = $2`,
		groupID, name,
	)
	if err != nil {
		return nil, pgErr("select attribute", err)
	}
	return &a, nil
}

func (s *PostgresStore) CreateProductAttribute(ctx context.Context, pa *catalog.ProductAttribute) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product_attributes (product_id, attribute_id, value) VALUES ($1, $2, $3)`,
		pa.ProductID, pa.AttributeID, pa.Value,
	)
	if err != nil {
		return pgErr("insert product attribute", err)
	}
	return nil
}

// execRequireRows turns a zero-row UPDATE into notFound.
func execRequireRows(op string, result sql.Result, err, notFound error) error {
	if err != nil {
		return pgErr(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return pgErr(op, err)
	}
	if n == 0 {
		return pgErr(op, notFound)
	}
	return nil
}

func pgErr(op string, err error) error {
	return &types.StorageError{Backend: postgresBackend, Op: op, Err: err}
}
