// Package app wires the record store, importer, exporter, draft cache
// and dashboard aggregator behind a single Engine. A frontend talks to
// the Engine only; it never touches the storage or file layers directly.
package app

import (
	"context"
	"sync"

	"rolodex/internal/config"
	"rolodex/internal/dashboard"
	"rolodex/internal/draft"
	"rolodex/internal/impex"
	"rolodex/internal/record"
	"rolodex/internal/store"
)

// Engine provides the core business logic for record management.
type Engine struct {
	cfg    *config.Config
	store  *store.Store
	drafts *draft.Cache

	mu   sync.RWMutex
	jobs map[string]*activeJob
}

// New creates an Engine over an open store and draft cache.
func New(cfg *config.Config, st *store.Store, drafts *draft.Cache) *Engine {
	return &Engine{
		cfg:    cfg,
		store:  st,
		drafts: drafts,
		jobs:   make(map[string]*activeJob),
	}
}

// Close flushes pending drafts and closes the store.
func (e *Engine) Close() error {
	e.drafts.Close()
	return e.store.Close()
}

// Add validates the fields and inserts a new record.
func (e *Engine) Add(ctx context.Context, f record.Fields) (record.Record, error) {
	return e.store.Create(ctx, f)
}

// Get returns the record with the given ID.
func (e *Engine) Get(ctx context.Context, id string) (record.Record, error) {
	return e.store.Get(ctx, id)
}

// Edit applies a partial update to the record with the given ID.
// Only the fields set in the patch are validated and changed.
func (e *Engine) Edit(ctx context.Context, id string, p record.Patch) (record.Record, error) {
	return e.store.Update(ctx, id, p)
}

// Delete removes the record with the given ID.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

// Search returns one page of records matching query, using the
// configured page size. An empty query matches everything.
func (e *Engine) Search(ctx context.Context, query string, page int) (*store.SearchResult, error) {
	return e.store.Search(ctx, query, page, e.cfg.Records.PageSize)
}

// Count returns the total number of records.
func (e *Engine) Count(ctx context.Context) (int64, error) {
	return e.store.Count(ctx)
}

// Dashboard computes group counts over the full record set.
func (e *Engine) Dashboard(ctx context.Context) (*dashboard.Data, error) {
	return dashboard.New(e.store).Data(ctx)
}

// SaveDraft persists unvalidated form state for the given form.
// Saves are debounced; call LoadDraft to get the latest state back.
func (e *Engine) SaveDraft(formID string, fields map[string]string) {
	e.drafts.Save(formID, fields)
}

// LoadDraft returns the saved form state, or ok=false if none exists.
func (e *Engine) LoadDraft(formID string) (map[string]string, bool) {
	return e.drafts.Load(formID)
}

// ClearDraft discards any saved state for the given form.
func (e *Engine) ClearDraft(formID string) {
	e.drafts.Clear(formID)
}

// Import runs a synchronous import of the file at path.
// Prefer StartImport for a UI; this blocks until the file is processed.
func (e *Engine) Import(ctx context.Context, path string) (*impex.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Import.Timeout)
	defer cancel()

	im := impex.NewImporter(e.store, impex.WithMaxFileSize(e.cfg.Import.MaxFileSize))
	return im.ImportFile(ctx, path)
}

// Export writes all records to path, choosing the format from the
// file extension. This blocks until the file is written.
func (e *Engine) Export(ctx context.Context, path string) (*impex.ExportResult, error) {
	return impex.NewExporter(e.store).Export(ctx, path)
}
