// Package store persists the archive between runs: the catalog document
// holding every record and the cursor marking how far the crawl got.
// Both are single-writer files; concurrent crawlers against the same
// paths are unsupported.
package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/adii83/steam-metadata-archive/internal/model"
)

// Catalog is the in-memory form of the archive document. Keys are the
// numeric ids; on disk they become an object with string keys in
// ascending numeric order.
type Catalog struct {
	path    string
	records map[int]*model.Record
}

// LoadCatalog reads the document at path. A missing file yields an empty
// catalog; a file that exists but does not decode is an error, because
// overwriting it would silently discard the archive.
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path, records: make(map[int]*model.Record)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read catalog %s", path)
	}

	var raw map[string]*model.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "store: parse catalog %s", path)
	}
	for key, rec := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, eris.Wrapf(err, "store: catalog key %q", key)
		}
		c.records[id] = rec
	}
	return c, nil
}

// Get returns the record for id, if present.
func (c *Catalog) Get(id int) (*model.Record, bool) {
	rec, ok := c.records[id]
	return rec, ok
}

// Put inserts or overwrites the record under its own id.
func (c *Catalog) Put(rec *model.Record) {
	c.records[rec.AppID] = rec
}

// Len reports the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// IDs returns every stored id in ascending order.
func (c *Catalog) IDs() []int {
	ids := make([]int, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Reconcile drops every record whose id is absent from known and returns
// the pruned ids. Run before a crawl so delisted items age out of the
// archive instead of fossilizing.
func (c *Catalog) Reconcile(known []int) []int {
	keep := make(map[int]bool, len(known))
	for _, id := range known {
		keep[id] = true
	}
	var pruned []int
	for id := range c.records {
		if !keep[id] {
			delete(c.records, id)
			pruned = append(pruned, id)
		}
	}
	sort.Ints(pruned)
	return pruned
}

// Save writes the document compactly, string-keyed and numerically
// ordered, through a temp file in the same directory so a crash never
// leaves a half-written catalog behind.
func (c *Catalog) Save() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, id := range c.IDs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(id)))
		buf.WriteByte(':')
		if err := enc.Encode(c.records[id]); err != nil {
			return eris.Wrapf(err, "store: encode record %d", id)
		}
		// Encode terminates each value with a newline; the document is
		// a single compact line.
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')

	return writeAtomic(c.path, buf.Bytes())
}

// writeAtomic writes data to path via a temp file and rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "store: create temp for %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "store: write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "store: close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "store: rename %s", path)
	}
	return nil
}
