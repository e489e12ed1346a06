package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// Slugify lowercases and transliterates s, collapsing every run of
// non-alphanumeric characters into a single dash.
func Slugify(s string) string {
	return slug.Make(strings.ReplaceAll(s, "_", " "))
}

// Resolver derives a category's slug, level and full slug from its parent.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver reading parents from store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve fills the derived fields of c from the parent's stored state.
// It must run before every write of c. Children of c are not revisited.
func (r *Resolver) Resolve(ctx context.Context, c *Category) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}

	if c.ParentID == nil {
		c.Level = 1
		c.FullSlug = c.Slug
		return nil
	}

	if c.ID != 0 && *c.ParentID == c.ID {
		return fmt.Errorf("category %q cannot be its own parent", c.Name)
	}

	parent, err := r.store.FindCategory(ctx, *c.ParentID)
	if err != nil {
		return fmt.Errorf("load parent category %d: %w", *c.ParentID, err)
	}
	if parent == nil {
		return fmt.Errorf("parent category %d of %q not found", *c.ParentID, c.Name)
	}

	c.Level = parent.Level + 1
	c.FullSlug = parent.FullSlug + "/" + c.Slug
	return nil
}
