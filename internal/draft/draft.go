// Package draft persists unsaved form state so an interrupted session
// can be restored. Drafts are raw field values keyed by form id; no
// validation is applied and invalid in-progress input is kept as typed.
package draft

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Cache is a file-backed draft store. Saves are fire-and-forget and
// coalesced through a debounce interval so keystroke-level updates do
// not hammer the disk. At most one draft exists per form id.
type Cache struct {
	dir      string
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingSave
}

type pendingSave struct {
	fields map[string]string
	timer  *time.Timer
}

// Open creates a Cache rooted at dir, creating the directory if needed.
// A zero debounce writes through immediately.
func Open(dir string, debounce time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}
	return &Cache{
		dir:      dir,
		debounce: debounce,
		log:      slog.Default(),
		pending:  make(map[string]*pendingSave),
	}, nil
}

// Save schedules the draft for persistence. It returns immediately; a
// failed write is logged, never surfaced to the form.
func (c *Cache) Save(formID string, fields map[string]string) {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.debounce <= 0 {
		c.writeLocked(formID, copied)
		return
	}

	if p, ok := c.pending[formID]; ok {
		p.fields = copied
		p.timer.Reset(c.debounce)
		return
	}

	p := &pendingSave{fields: copied}
	p.timer = time.AfterFunc(c.debounce, func() { c.flush(formID) })
	c.pending[formID] = p
}

// Load returns the saved draft for a form, or ok=false when none exists.
// Pending unflushed saves are visible immediately.
func (c *Cache) Load(formID string) (map[string]string, bool) {
	c.mu.Lock()
	if p, ok := c.pending[formID]; ok {
		fields := make(map[string]string, len(p.fields))
		for k, v := range p.fields {
			fields[k] = v
		}
		c.mu.Unlock()
		return fields, true
	}
	c.mu.Unlock()

	data, err := os.ReadFile(c.path(formID))
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("draft read failed", "form", formID, "error", err)
		}
		return nil, false
	}

	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		c.log.Warn("draft corrupted, discarding", "form", formID, "error", err)
		return nil, false
	}
	return fields, true
}

// Clear discards the draft for a form, both pending and persisted.
// Called on successful submit or explicit discard.
func (c *Cache) Clear(formID string) {
	c.mu.Lock()
	if p, ok := c.pending[formID]; ok {
		p.timer.Stop()
		delete(c.pending, formID)
	}
	c.mu.Unlock()

	if err := os.Remove(c.path(formID)); err != nil && !os.IsNotExist(err) {
		c.log.Warn("draft remove failed", "form", formID, "error", err)
	}
}

// Close flushes all pending drafts to disk. Call on shutdown so the
// latest keystrokes survive a restart.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for formID, p := range c.pending {
		p.timer.Stop()
		c.writeLocked(formID, p.fields)
		delete(c.pending, formID)
	}
}

// flush persists one pending draft; invoked by the debounce timer.
func (c *Cache) flush(formID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[formID]
	if !ok {
		return
	}
	delete(c.pending, formID)
	c.writeLocked(formID, p.fields)
}

func (c *Cache) writeLocked(formID string, fields map[string]string) {
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		c.log.Warn("draft encode failed", "form", formID, "error", err)
		return
	}

	path := c.path(formID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.log.Warn("draft write failed", "form", formID, "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		c.log.Warn("draft write failed", "form", formID, "error", err)
	}
}

func (c *Cache) path(formID string) string {
	return filepath.Join(c.dir, sanitizeFormID(formID)+".json")
}

// sanitizeFormID keeps draft file names flat and filesystem-safe.
func sanitizeFormID(formID string) string {
	var b strings.Builder
	for _, r := range formID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "draft"
	}
	return b.String()
}
