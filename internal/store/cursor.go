package store

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Cursor is the resume point of the crawl: the index into the ordered
// identifier list that the next run starts from. Everything before it
// is fully committed.
type Cursor struct {
	path  string
	Index int
}

type cursorDoc struct {
	Index int `json:"index"`
}

// LoadCursor reads the cursor at path. A missing or unreadable file
// starts over from zero; re-crawling is idempotent, so that only costs
// time, while refusing to start would cost the run.
func LoadCursor(path string) *Cursor {
	c := &Cursor{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c
	}
	if err != nil {
		zap.L().Warn("cursor unreadable, starting from zero",
			zap.String("path", path),
			zap.Error(err),
		)
		return c
	}

	var doc cursorDoc
	if err := json.Unmarshal(data, &doc); err != nil || doc.Index < 0 {
		zap.L().Warn("cursor corrupt, starting from zero",
			zap.String("path", path),
			zap.Error(err),
		)
		return c
	}

	c.Index = doc.Index
	return c
}

// Clamp bounds the cursor to the identifier count. A shrunken mirror
// must not leave the cursor pointing past the end.
func (c *Cursor) Clamp(total int) {
	if c.Index > total {
		zap.L().Warn("cursor beyond identifier list, clamping",
			zap.Int("index", c.Index),
			zap.Int("total", total),
		)
		c.Index = total
	}
}

// Save persists the cursor compactly via the same durable write as the
// catalog.
func (c *Cursor) Save() error {
	data, err := json.Marshal(cursorDoc{Index: c.Index})
	if err != nil {
		return eris.Wrap(err, "store: encode cursor")
	}
	return writeAtomic(c.path, data)
}
