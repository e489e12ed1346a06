package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IshaanNene/catalogsync/internal/types"
)

// MemoryStore is a Store kept in process memory. It backs dry runs and tests.
type MemoryStore struct {
	mu sync.Mutex

	nextID            int64
	categories        []*Category
	brands            []*Brand
	products          []*Product
	images            []*Image
	groups            []*AttributeGroup
	attributes        []*Attribute
	productAttributes []*ProductAttribute
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) FindCategory(_ context.Context, id int64) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindCategoryByName(_ context.Context, name string) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.categoryByName(name); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) categoryByName(name string) *Category {
	for _, c := range s.categories {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (s *MemoryStore) FirstOrCreateCategory(_ context.Context, c *Category) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.categoryByName(c.Name); existing != nil {
		cp := *existing
		return &cp, nil
	}

	now := time.Now()
	stored := *c
	stored.ID = s.id()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.categories = append(s.categories, &stored)

	cp := stored
	return &cp, nil
}

func (s *MemoryStore) UpdateCategory(_ context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.categories {
		if existing.ID == c.ID {
			updated := *c
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = time.Now()
			s.categories[i] = &updated
			return nil
		}
	}
	return errNotFound("category", c.ID)
}

func (s *MemoryStore) FirstOrCreateBrand(_ context.Context, name, slug string) (*Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.brands {
		if b.Name == name {
			cp := *b
			return &cp, nil
		}
	}
	b := &Brand{ID: s.id(), Name: name, Slug: slug, CreatedAt: time.Now()}
	s.brands = append(s.brands, b)
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) FindProductByExternalID(_ context.Context, externalID string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ExternalID != nil && *p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p.ID = s.id()
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := *p
	s.products = append(s.products, &stored)
	return nil
}

func (s *MemoryStore) UpdateProductCommerce(_ context.Context, id int64, u CommerceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			p.Price = u.Price
			p.OriginalPrice = u.OriginalPrice
			p.IsAvailable = u.IsAvailable
			p.UpdatedAt = time.Now()
			return nil
		}
	}
	return errNotFound("product", id)
}

func (s *MemoryStore) CreateImage(_ context.Context, img *Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	img.ID = s.id()
	stored := *img
	s.images = append(s.images, &stored)
	return nil
}

func (s *MemoryStore) FirstOrCreateAttributeGroup(_ context.Context, name string) (*AttributeGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.Name == name {
			cp := *g
			return &cp, nil
		}
	}
	g := &AttributeGroup{ID: s.id(), Name: name}
	s.groups = append(s.groups, g)
	cp := *g
	return &cp, nil
}

func (s *MemoryStore) FirstOrCreateAttribute(_ context.Context, groupID int64, name string) (*Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attributes {
		if a.Name == name && a.AttributeGroupID == groupID {
			cp := *a
			return &cp, nil
		}
	}
	a := &Attribute{ID: s.id(), AttributeGroupID: groupID, Name: name}
	s.attributes = append(s.attributes, a)
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) CreateProductAttribute(_ context.Context, pa *ProductAttribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *pa
	s.productAttributes = append(s.productAttributes, &stored)
	return nil
}

// --- Snapshots ---

// Categories returns a copy of every stored category.
func (s *MemoryStore) Categories() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAll(s.categories)
}

// Brands returns a copy of every stored brand.
func (s *MemoryStore) Brands() []Brand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAll(s.brands)
}

// Products returns a copy of every stored product.
func (s *MemoryStore) Products() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAll(s.products)
}

// Images returns a copy of every stored image.
func (s *MemoryStore) Images() []Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAll(s.images)
}

// AttributeGroups returns a copy of every stored attribute group.
func (s *MemoryStore) AttributeGroups() []AttributeGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAll(s.groups)
}

// Attributes returns a copy of every stored attribute.
func (s *MemoryStore) Attributes() []Attribute {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAll(s.attributes)
}

// ProductAttributes returns a copy of every stored product attribute value.
func (s *MemoryStore) ProductAttributes() []ProductAttribute {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAll(s.productAttributes)
}

func copyAll[T any](rows []*T) []T {
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out
}

func errNotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, types.ErrNotFound)
}
