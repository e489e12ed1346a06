// Package catalog holds the normalized catalog model and the logic that
// reconciles extracted product records into it.
package catalog

import "time"

// Category is a node of the category tree. Slug, FullSlug and Level are
// derived by the Resolver on every write.
type Category struct {
	ID        int64     `db:"id"         bson:"_id"`
	ParentID  *int64    `db:"parent_id"  bson:"parent_id,omitempty"`
	Name      string    `db:"name"       bson:"name"`
	Slug      string    `db:"slug"       bson:"slug"`
	FullSlug  string    `db:"full_slug"  bson:"full_slug"`
	Level     int       `db:"level"      bson:"level"`
	CreatedAt time.Time `db:"created_at" bson:"created_at"`
	UpdatedAt time.Time `db:"updated_at" bson:"updated_at"`
}

// Brand is a manufacturer, unique by name.
type Brand struct {
	ID        int64     `db:"id"         bson:"_id"`
	Name      string    `db:"name"       bson:"name"`
	Slug      string    `db:"slug"       bson:"slug"`
	CreatedAt time.Time `db:"created_at" bson:"created_at"`
}

// Product is a catalog item, deduplicated across runs by ExternalID.
type Product struct {
	ID            int64     `db:"id"             bson:"_id"`
	ExternalID    *string   `db:"external_id"    bson:"external_id,omitempty"`
	Name          string    `db:"name"           bson:"name"`
	Description   string    `db:"description"    bson:"description"`
	Price         *float64  `db:"price"          bson:"price"`
	OriginalPrice *float64  `db:"original_price" bson:"original_price"`
	SKU           *string   `db:"sku"            bson:"sku,omitempty"`
	IsAvailable   bool      `db:"is_available"   bson:"is_available"`
	CategoryID    int64     `db:"category_id"    bson:"category_id"`
	BrandID       *int64    `db:"brand_id"       bson:"brand_id,omitempty"`
	CreatedAt     time.Time `db:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     bson:"updated_at"`
}

// Image is a gallery picture of a product.
type Image struct {
	ID        int64  `db:"id"         bson:"_id"`
	ProductID int64  `db:"product_id" bson:"product_id"`
	URL       string `db:"url"        bson:"url"`
}

// AttributeGroup clusters attributes, e.g. "Экран" or "Питание".
type AttributeGroup struct {
	ID   int64  `db:"id"   bson:"_id"`
	Name string `db:"name" bson:"name"`
}

// Attribute is unique by (Name, AttributeGroupID).
type Attribute struct {
	ID               int64  `db:"id"                 bson:"_id"`
	AttributeGroupID int64  `db:"attribute_group_id" bson:"attribute_group_id"`
	Name             string `db:"name"               bson:"name"`
}

// ProductAttribute carries the per-product value of an attribute.
type ProductAttribute struct {
	ProductID   int64  `db:"product_id"   bson:"product_id"`
	AttributeID int64  `db:"attribute_id" bson:"attribute_id"`
	Value       string `db:"value"        bson:"value"`
}

// CommerceUpdate holds the fields refreshed on an already known product.
type CommerceUpdate struct {
	Price         *float64
	OriginalPrice *float64
	IsAvailable   bool
}
