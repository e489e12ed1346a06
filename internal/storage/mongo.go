package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/catalogsync/internal/catalog"
	"github.com/IshaanNene/catalogsync/internal/types"
)

const mongoBackend = "mongodb"

const (
	collCounters          = "counters"
	collCategories        = "categories"
	collBrands            = "brands"
	collProducts          = "products"
	collImages            = "images"
	collAttributeGroups   = "attribute_groups"
	collAttributes        = "attributes"
	collProductAttributes = "product_attributes"
)

// MongoStore is a catalog.Store backed by MongoDB. Numeric ids come from a
// counters collection so that rows reference each other the same way they
// do in the relational backends.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// OpenMongo connects to uri and verifies the connection.
func OpenMongo(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, mongoErr("connect", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, mongoErr("ping", err)
	}

	return NewMongoStore(client, database, logger), nil
}

// NewMongoStore wraps an existing client.
func NewMongoStore(client *mongo.Client, database string, logger *slog.Logger) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(database),
		logger: logger.With("component", "mongo_store"),
	}
}

func (s *MongoStore) Name() string { return mongoBackend }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes the FirstOrCreate methods rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		collCategories:      {{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique}},
		collBrands:          {{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique}},
		collAttributeGroups: {{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique}},
		collAttributes: {{
			Keys:    bson.D{{Key: "attribute_group_id", Value: 1}, {Key: "name", Value: 1}},
			Options: unique,
		}},
		collProducts: {{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		}},
		collProductAttributes: {{Keys: bson.D{{Key: "product_id", Value: 1}}}},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return mongoErr("create indexes on "+coll, err)
		}
	}
	s.logger.Info("indexes ready", "collections", len(indexes))
	return nil
}

// nextID atomically increments the named counter.
func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(collCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, mongoErr("next id "+name, err)
	}
	return counter.Seq, nil
}

// findOne decodes the first match into out and reports whether one existed.
func (s *MongoStore) findOne(ctx context.Context, coll string, filter any, out any) (bool, error) {
	err := s.db.Collection(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, mongoErr("find "+coll, err)
	}
	return true, nil
}

// firstOrCreate looks filter up and, when absent, upserts doc under a fresh
// id with $setOnInsert so a concurrent insert of the same key wins cleanly.
func (s *MongoStore) firstOrCreate(ctx context.Context, coll string, filter bson.M, doc func(id int64) bson.M, out any) error {
	found, err := s.findOne(ctx, coll, filter, out)
	if err != nil || found {
		return err
	}

	id, err := s.nextID(ctx, coll)
	if err != nil {
		return err
	}

	err = s.db.Collection(coll).FindOneAndUpdate(ctx,
		filter,
		bson.M{"$setOnInsert": doc(id)},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(out)
	if err != nil {
		return mongoErr("upsert "+coll, err)
	}
	return nil
}

func (s *MongoStore) FindCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	var c catalog.Category
	found, err := s.findOne(ctx, collCategories, bson.M{"_id": id}, &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) FindCategoryByName(ctx context.Context, name string) (*catalog.Category, error) {
	var c catalog.Category
	found, err := s.findOne(ctx, collCategories, bson.M{"name": name}, &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) FirstOrCreateCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error) {
	var stored catalog.Category
	err := s.firstOrCreate(ctx, collCategories, bson.M{"name": c.Name}, func(id int64) bson.M {
		now := time.Now().UTC()
		doc := bson.M{
			"_id":        id,
			"name":       c.Name,
			"slug":       c.Slug,
			"full_slug":  c.FullSlug,
			"level":      c.Level,
			"created_at": now,
			"updated_at": now,
		}
		if c.ParentID != nil {
			doc["parent_id"] = *c.ParentID
		}
		return doc
	}, &stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *MongoStore) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	update := bson.M{
		"$set": bson.M{
			"name":       c.Name,
			"slug":       c.Slug,
			"full_slug":  c.FullSlug,
			"level":      c.Level,
			"updated_at": time.Now().UTC(),
		},
	}
	if c.ParentID != nil {
		update["$set"].(bson.M)["parent_id"] = *c.ParentID
	} else {
		update["$unset"] = bson.M{"parent_id": ""}
	}

	res, err := s.db.Collection(collCategories).UpdateOne(ctx, bson.M{"_id": c.ID}, update)
	if err != nil {
		return mongoErr("update category", err)
	}
	if res.MatchedCount == 0 {
		return mongoErr("update category", fmt.Errorf("category %d: %w", c.ID, types.ErrNotFound))
	}
	return nil
}

func (s *MongoStore) FirstOrCreateBrand(ctx context.Context, name, slug string) (*catalog.Brand, error) {
	var b catalog.Brand
	err := s.firstOrCreate(ctx, collBrands, bson.M{"name": name}, func(id int64) bson.M {
		return bson.M{"_id": id, "name": name, "slug": slug, "created_at": time.Now().UTC()}
	}, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *MongoStore) FindProductByExternalID(ctx context.Context, externalID string) (*catalog.Product, error) {
	var p catalog.Product
	found, err := s.findOne(ctx, collProducts, bson.M{"external_id": externalID}, &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) CreateProduct(ctx context.Context, p *catalog.Product) error {
	id, err := s.nextID(ctx, collProducts)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.db.Collection(collProducts).InsertOne(ctx, p); err != nil {
		return mongoErr("insert product", err)
	}
	return nil
}

func (s *MongoStore) UpdateProductCommerce(ctx context.Context, id int64, u catalog.CommerceUpdate) error {
	res, err := s.db.Collection(collProducts).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"price":          u.Price,
			"original_price": u.OriginalPrice,
			"is_available":   u.IsAvailable,
			"updated_at":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return mongoErr("update product", err)
	}
	if res.MatchedCount == 0 {
		return mongoErr("update product", fmt.Errorf("product %d: %w", id, types.ErrNotFound))
	}
	return nil
}

func (s *MongoStore) CreateImage(ctx context.Context, img *catalog.Image) error {
	id, err := s.nextID(ctx, collImages)
	if err != nil {
		return err
	}
	img.ID = id
	if _, err := s.db.Collection(collImages).InsertOne(ctx, img); err != nil {
		return mongoErr("insert image", err)
	}
	return nil
}

func (s *MongoStore) FirstOrCreateAttributeGroup(ctx context.Context, name string) (*catalog.AttributeGroup, error) {
	var g catalog.AttributeGroup
	err := s.firstOrCreate(ctx, collAttributeGroups, bson.M{"name": name}, func(id int64) bson.M {
		return bson.M{"_id": id, "name": name}
	}, &g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *MongoStore) FirstOrCreateAttribute(ctx context.Context, groupID int64, name string) (*catalog.Attribute, error) {
	var a catalog.Attribute
	filter := bson.M{"attribute_group_id": groupID, "name": name}
	err := s.firstOrCreate(ctx, collAttributes, filter, func(id int64) bson.M {
		return bson.M{"_id": id, "attribute_group_id": groupID, "name": name}
	}, &a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *MongoStore) CreateProductAttribute(ctx context.Context, pa *catalog.ProductAttribute) error {
	if _, err := s.db.Collection(collProductAttributes).InsertOne(ctx, pa); err != nil {
		return mongoErr("insert product attribute", err)
	}
	return nil
}

func mongoErr(op string, err error) error {
	return &types.StorageError{Backend: mongoBackend, Op: op, Err: err}
}
