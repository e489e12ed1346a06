package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/catalogsync/internal/types"
)

// Outcome tells what the reconciler did with a record.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

// Reconciler merges extracted product records into a Store. Re-running it
// with identical input creates no additional category, brand, product,
// attribute group or attribute rows.
type Reconciler struct {
	store    Store
	resolver *Resolver
	logger   *slog.Logger
}

// NewReconciler creates a Reconciler over store.
func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		resolver: NewResolver(store),
		logger:   logger.With("component", "reconciler", "store", store.Name()),
	}
}

// SaveCategory resolves the derived fields of c and persists it: a new
// category (ID 0) is looked up or created by name, an existing one is updated.
func (r *Reconciler) SaveCategory(ctx context.Context, c *Category) (*Category, error) {
	if err := r.resolver.Resolve(ctx, c); err != nil {
		return nil, err
	}

	if c.ID == 0 {
		stored, err := r.store.FirstOrCreateCategory(ctx, c)
		if err != nil {
			return nil, err
		}
		return stored, nil
	}

	if err := r.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// EnsureCategory returns the category called name, creating it under
// parent when it does not exist yet. An existing category whose parent
// differs from a non-nil parent is moved under it.
func (r *Reconciler) EnsureCategory(ctx context.Context, name string, parent *Category) (*Category, error) {
	existing, err := r.store.FindCategoryByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		c := &Category{Name: name}
		if parent != nil {
			c.ParentID = &parent.ID
		}
		created, err := r.SaveCategory(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", name, err)
		}
		r.logger.Info("category created", "name", created.Name, "full_slug", created.FullSlug, "level", created.Level)
		return created, nil
	}

	if parent != nil && (existing.ParentID == nil || *existing.ParentID != parent.ID) {
		existing.ParentID = &parent.ID
		moved, err := r.SaveCategory(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("move category %q: %w", name, err)
		}
		r.logger.Info("category moved", "name", moved.Name, "full_slug", moved.FullSlug, "level", moved.Level)
		return moved, nil
	}

	return existing, nil
}

// Reconcile persists one product record. The category is looked up or
// created by rec.Category at the root of the tree.
func (r *Reconciler) Reconcile(ctx context.Context, rec *types.ProductRecord) (Outcome, error) {
	if rec == nil || rec.Category == "" {
		return OutcomeSkipped, nil
	}
	category, err := r.EnsureCategory(ctx, rec.Category, nil)
	if err != nil {
		return "", err
	}
	return r.ReconcileInto(ctx, rec, category)
}

// ReconcileInto persists one product record under an already resolved category.
//
// A product known by its external id only gets price, original price and
// availability refreshed. Name, description, images, attributes and
// linkage stay as first created.
func (r *Reconciler) ReconcileInto(ctx context.Context, rec *types.ProductRecord, category *Category) (Outcome, error) {
	if rec == nil {
		return OutcomeSkipped, nil
	}

	var brand *Brand
	if rec.Brand != nil && *rec.Brand != "" {
		b, err := r.store.FirstOrCreateBrand(ctx, *rec.Brand, Slugify(*rec.Brand))
		if err != nil {
			return "", fmt.Errorf("brand %q: %w", *rec.Brand, err)
		}
		brand = b
	}

	if rec.ExternalID != nil {
		existing, err := r.store.FindProductByExternalID(ctx, *rec.ExternalID)
		if err != nil {
			return "", fmt.Errorf("find product %q: %w", *rec.ExternalID, err)
		}
		if existing != nil {
			update := CommerceUpdate{
				Price:         rec.Price,
				OriginalPrice: rec.OriginalPrice,
				IsAvailable:   rec.IsAvailable,
			}
			if err := r.store.UpdateProductCommerce(ctx, existing.ID, update); err != nil {
				return "", fmt.Errorf("update product %q: %w", *rec.ExternalID, err)
			}
			r.logger.Info("product updated", "id", existing.ID, "name", existing.Name)
			return OutcomeUpdated, nil
		}
	}

	product := &Product{
		ExternalID:    rec.ExternalID,
		Name:          rec.Name,
		Description:   rec.Description,
		Price:         rec.Price,
		OriginalPrice: rec.OriginalPrice,
		IsAvailable:   rec.IsAvailable,
		CategoryID:    category.ID,
	}
	if brand != nil {
		product.BrandID = &brand.ID
	}

	if err := r.store.CreateProduct(ctx, product); err != nil {
		return "", fmt.Errorf("create product %q: %w", rec.Name, err)
	}

	for _, imageURL := range rec.Images {
		if err := r.store.CreateImage(ctx, &Image{ProductID: product.ID, URL: imageURL}); err != nil {
			return "", fmt.Errorf("create image for product %d: %w", product.ID, err)
		}
	}

	for _, row := range rec.Attributes {
		if err := r.attach(ctx, product.ID, row); err != nil {
			return "", err
		}
	}

	r.logger.Info("product created",
		"id", product.ID,
		"name", product.Name,
		"images", len(rec.Images),
		"attributes", len(rec.Attributes),
	)
	return OutcomeCreated, nil
}

// attach links one attribute row to a product, creating its group and
// attribute on first sight.
func (r *Reconciler) attach(ctx context.Context, productID int64, row types.AttributeRow) error {
	group, err := r.store.FirstOrCreateAttributeGroup(ctx, row.Group)
	if err != nil {
		return fmt.Errorf("attribute group %q: %w", row.Group, err)
	}

	attr, err := r.store.FirstOrCreateAttribute(ctx, group.ID, row.Name)
	if err != nil {
		return fmt.Errorf("attribute %q in group %q: %w", row.Name, row.Group, err)
	}

	pa := &ProductAttribute{ProductID: productID, AttributeID: attr.ID, Value: row.Value}
	if err := r.store.CreateProductAttribute(ctx, pa); err != nil {
		return fmt.Errorf("attach attribute %q to product %d: %w", row.Name, productID, err)
	}
	return nil
}
