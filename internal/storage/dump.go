package storage

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/catalogsync/internal/config"
)

// Dump is an append-only sink for raw fetched documents, kept for
// troubleshooting only. Nothing reads it back during a crawl.
type Dump interface {
	// Append records body under DumpKey(runID, kind, page).
	Append(runID, kind string, page int, body []byte) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the sink identifier.
	Name() string
}

// DumpKey formats the key a document is stored under, e.g.
// "<run>/listing/00003". Pages are zero padded so keys sort in page order.
func DumpKey(runID, kind string, page int) string {
	return fmt.Sprintf("%s/%s/%05d", runID, kind, page)
}

// NewDump builds the sink selected by cfg.Type.
func NewDump(cfg config.DumpConfig, logger *slog.Logger) (Dump, error) {
	switch cfg.Type {
	case "", "none":
		return NopDump{}, nil
	case "file":
		return NewFileDump(cfg.Path, logger)
	case "badger":
		return NewBadgerDump(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown dump type %q", cfg.Type)
	}
}

// NopDump discards everything.
type NopDump struct{}

func (NopDump) Append(string, string, int, []byte) error { return nil }
func (NopDump) Close() error                             { return nil }
func (NopDump) Name() string                             { return "none" }
