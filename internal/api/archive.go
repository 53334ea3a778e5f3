package api

import (
	"os"
	"sync"
	"time"

	"github.com/adii83/steam-metadata-archive/internal/store"
)

// FileArchive serves catalog snapshots from the store files, reloading
// the catalog when a sync process rewrites it underneath the server.
type FileArchive struct {
	catalogPath string
	cursorPath  string

	mu  sync.Mutex
	mod time.Time
	cat *store.Catalog
}

// NewFileArchive creates a FileArchive over the given store paths.
func NewFileArchive(catalogPath, cursorPath string) *FileArchive {
	return &FileArchive{catalogPath: catalogPath, cursorPath: cursorPath}
}

// Snapshot returns the current catalog, re-reading the file only when
// its modification time has moved. The returned catalog must be
// treated as read-only.
func (a *FileArchive) Snapshot() (*store.Catalog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var mod time.Time
	if info, err := os.Stat(a.catalogPath); err == nil {
		mod = info.ModTime()
	}
	if a.cat != nil && mod.Equal(a.mod) {
		return a.cat, nil
	}

	cat, err := store.LoadCatalog(a.catalogPath)
	if err != nil {
		return nil, err
	}
	a.cat, a.mod = cat, mod
	return cat, nil
}

// CursorIndex reads the persisted crawl position. The file is small
// enough to read on every call.
func (a *FileArchive) CursorIndex() int {
	return store.LoadCursor(a.cursorPath).Index
}
