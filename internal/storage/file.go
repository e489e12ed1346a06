package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileDump appends documents to <dir>/<runID>.log, one file per crawl run.
type FileDump struct {
	dir    string
	files  map[string]*os.File
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewFileDump creates the dump directory if needed.
func NewFileDump(dir string, logger *slog.Logger) (*FileDump, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}
	return &FileDump{
		dir:    dir,
		files:  make(map[string]*os.File),
		logger: logger.With("component", "file_dump"),
	}, nil
}

func (d *FileDump) Name() string { return "file" }

// Path returns the log file used for runID.
func (d *FileDump) Path(runID string) string {
	return filepath.Join(d.dir, runID+".log")
}

func (d *FileDump) Append(runID, kind string, page int, body []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.files[runID]
	if !ok {
		var err error
		f, err = os.OpenFile(d.Path(runID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open dump file: %w", err)
		}
		d.files[runID] = f
	}

	if _, err := fmt.Fprintf(f, "=== %s (%d bytes)\n", DumpKey(runID, kind, page), len(body)); err != nil {
		return fmt.Errorf("write dump header: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("write dump body: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("write dump body: %w", err)
	}

	d.count++
	d.logger.Debug("document dumped", "key", DumpKey(runID, kind, page), "size", len(body))
	return nil
}

func (d *FileDump) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for runID, f := range d.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(d.files, runID)
	}
	d.logger.Info("file dump closed", "dir", d.dir, "documents", d.count)
	return firstErr
}
