package engine

import (
	"time"

	"github.com/IshaanNene/catalogsync/internal/types"
)

// Report summarizes one crawl run.
type Report struct {
	RunID       string
	Category    string
	Pages       int
	ProductURLs int
	Created     int
	Updated     int
	Skipped     int
	Failed      []types.ProductError
	StartedAt   time.Time
	Duration    time.Duration
}

// Processed returns the number of products that reached the store.
func (r *Report) Processed() int {
	return r.Created + r.Updated
}

// Listing is the result of walking a category's paginated listing.
type Listing struct {
	Title string
	// URLs holds normalized product URLs in page order. Duplicates across
	// pages are kept.
	URLs  []string
	Pages int
}
