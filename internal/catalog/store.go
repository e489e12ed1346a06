package catalog

import "context"

// Store is the persistence contract the reconciler depends on.
//
// Find methods return (nil, nil) when nothing matches. The FirstOrCreate
// methods must resolve concurrent callers to a single row per unique key.
type Store interface {
	FindCategory(ctx context.Context, id int64) (*Category, error)
	FindCategoryByName(ctx context.Context, name string) (*Category, error)
	// FirstOrCreateCategory inserts c unless a category with the same name
	// exists and returns the stored row either way.
	FirstOrCreateCategory(ctx context.Context, c *Category) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) error

	FirstOrCreateBrand(ctx context.Context, name, slug string) (*Brand, error)

	FindProductByExternalID(ctx context.Context, externalID string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProductCommerce(ctx context.Context, id int64, u CommerceUpdate) error

	CreateImage(ctx context.Context, img *Image) error

	FirstOrCreateAttributeGroup(ctx context.Context, name string) (*AttributeGroup, error)
	FirstOrCreateAttribute(ctx context.Context, groupID int64, name string) (*Attribute, error)
	CreateProductAttribute(ctx context.Context, pa *ProductAttribute) error

	Name() string
	Close() error
}
