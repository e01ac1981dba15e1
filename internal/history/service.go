// Package history implements the clipboard history service: the capture
// pipeline, every mutation over persisted records and categories, and
// the capacity guard. All read-modify-write cycles against the store go
// through a single Service, which serializes them under a mutex and
// retries on revision conflicts, so concurrent surfaces (popup, browser,
// watcher) cannot lose each other's writes.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/copysaver/copysaver/internal/store"
	"github.com/oklog/ulid/v2"
)

const (
	// DefaultMaxItems is the default history ceiling.
	DefaultMaxItems = 100

	// conflictRetries bounds how often an operation re-reads after a
	// store revision conflict before giving up.
	conflictRetries = 5
)

// DefaultFavicon returns the fallback favicon URL for a page that does
// not expose one.
func DefaultFavicon(hostname string) string {
	return fmt.Sprintf("https://%s/favicon.ico", hostname)
}

// Service owns all clipboard history state transitions.
type Service struct {
	mu       sync.Mutex
	store    store.Store
	notifier Notifier
	maxItems int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMaxItems sets the history ceiling. Non-positive values fall back
// to DefaultMaxItems.
func WithMaxItems(max int) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxItems = max
		}
	}
}

// WithNotifier sets the notification sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a history service over the given store.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		notifier: discardNotifier{},
		maxItems: DefaultMaxItems,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxItems returns the configured history ceiling.
func (s *Service) MaxItems() int {
	return s.maxItems
}

// collections is the decoded pair of stored lists an operation works on.
type collections struct {
	records    []store.Record
	categories []store.Category
}

// update runs one serialized read-modify-write cycle. The transform
// receives freshly decoded collections and returns the desired state;
// returning an error aborts without writing. Revision conflicts from
// writers outside this process trigger a bounded re-read-and-retry.
func (s *Service) update(ctx context.Context, transform func(c *collections) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		snap, err := s.store.Get(ctx, store.KeyHistory, store.KeyCategories)
		if err != nil {
			return fmt.Errorf("failed to read store: %w", err)
		}

		c := &collections{}
		c.records, err = store.DecodeRecords(snap[store.KeyHistory].Value)
		if err != nil {
			return err
		}
		c.categories, err = store.DecodeCategories(snap[store.KeyCategories].Value)
		if err != nil {
			return err
		}

		if err := transform(c); err != nil {
			return err
		}

		historyRaw, err := store.EncodeRecords(c.records)
		if err != nil {
			return err
		}
		categoriesRaw, err := store.EncodeCategories(c.categories)
		if err != nil {
			return err
		}

		// Commit only the keys the transform changed so unrelated
		// mutations on the other collection cannot conflict with this
		// one. A no-op transform writes nothing at all.
		commit := store.Snapshot{}
		if collectionChanged(snap[store.KeyHistory].Value, historyRaw) {
			commit[store.KeyHistory] = store.Entry{
				Value:    historyRaw,
				Revision: snap[store.KeyHistory].Revision,
			}
		}
		if collectionChanged(snap[store.KeyCategories].Value, categoriesRaw) {
			commit[store.KeyCategories] = store.Entry{
				Value:    categoriesRaw,
				Revision: snap[store.KeyCategories].Revision,
			}
		}
		if len(commit) == 0 {
			return nil
		}

		err = s.store.Set(ctx, commit)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("failed to write store: %w", err)
		}
		lastErr = err
	}
	return fmt.Errorf("gave up after %d conflicts: %w", conflictRetries, lastErr)
}

// collectionChanged reports whether the re-encoded collection differs
// from its stored bytes. A never-written key and an empty collection
// are the same state, so decoding and re-encoding an untouched
// collection never counts as a change.
func collectionChanged(stored, encoded json.RawMessage) bool {
	if bytes.Equal(stored, encoded) {
		return false
	}
	if len(stored) == 0 && string(encoded) == "null" {
		return false
	}
	return true
}

// Records returns the full record list, most recent first.
func (s *Service) Records(ctx context.Context) ([]store.Record, error) {
	snap, err := s.store.Get(ctx, store.KeyHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	return store.DecodeRecords(snap[store.KeyHistory].Value)
}

// Categories returns the category list in insertion order.
func (s *Service) Categories(ctx context.Context) ([]store.Category, error) {
	snap, err := s.store.Get(ctx, store.KeyCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	return store.DecodeCategories(snap[store.KeyCategories].Value)
}

// Snapshot returns both collections from one consistent store read.
func (s *Service) Snapshot(ctx context.Context) ([]store.Record, []store.Category, error) {
	snap, err := s.store.Get(ctx, store.KeyHistory, store.KeyCategories)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read store: %w", err)
	}
	records, err := store.DecodeRecords(snap[store.KeyHistory].Value)
	if err != nil {
		return nil, nil, err
	}
	categories, err := store.DecodeCategories(snap[store.KeyCategories].Value)
	if err != nil {
		return nil, nil, err
	}
	return records, categories, nil
}

// CaptureInput is the page context and text of one copy event.
type CaptureInput struct {
	Text     string
	URL      string
	Hostname string
	// PageTitle is the originating page's title. Falls back to URL.
	PageTitle string
	// Favicon is the page's icon URL. Falls back to the conventional
	// /favicon.ico location on the page's host.
	Favicon string
}

// Capture turns a copy event into a persisted record at the head of the
// history. Empty selections are rejected with ErrEmptyCapture. When the
// history is at its ceiling the record is dropped, one notification
// event is emitted for the attempt, and ErrAtCapacity is returned so the
// drop is never silent.
func (s *Service) Capture(ctx context.Context, input CaptureInput) (*store.Record, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrEmptyCapture
	}

	name := input.PageTitle
	if name == "" {
		name = input.URL
	}
	favicon := input.Favicon
	if favicon == "" {
		favicon = DefaultFavicon(input.Hostname)
	}

	record := store.Record{
		ID:        ulid.Make().String(),
		Text:      input.Text,
		Label:     input.Text,
		Timestamp: s.now(),
		Source: store.Source{
			Name:     name,
			Hostname: input.Hostname,
			URL:      input.URL,
			Favicon:  favicon,
		},
	}

	err := s.update(ctx, func(c *collections) error {
		if len(c.records)+1 > s.maxItems {
			s.notifier.Notify(Event{
				Type:    EventShowNotification,
				Message: CapacityMessage,
			})
			return ErrAtCapacity
		}
		c.records = append([]store.Record{record}, c.records...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// TogglePin flips the pinned flag on one record. An unknown id is a
// no-op.
func (s *Service) TogglePin(ctx context.Context, id string) error {
	return s.update(ctx, func(c *collections) error {
		for i := range c.records {
			if c.records[i].ID == id {
				c.records[i].Pinned = !c.records[i].Pinned
				break
			}
		}
		return nil
	})
}

// AssignLabel replaces a record's display label. The captured text is
// untouched. Blank labels are rejected; an unknown id is a no-op.
func (s *Service) AssignLabel(ctx context.Context, id, label string) error {
	if strings.TrimSpace(label) == "" {
		return ErrEmptyLabel
	}
	return s.update(ctx, func(c *collections) error {
		for i := range c.records {
			if c.records[i].ID == id {
				c.records[i].Label = label
				break
			}
		}
		return nil
	})
}

// ToggleTrash flips the trashed flag on every matching record. Calling
// it again on already-trashed ids restores them.
func (s *Service) ToggleTrash(ctx context.Context, ids []string) error {
	idSet := toSet(ids)
	return s.update(ctx, func(c *collections) error {
		for i := range c.records {
			if idSet[c.records[i].ID] {
				c.records[i].Trashed = !c.records[i].Trashed
			}
		}
		return nil
	})
}

// Restore clears the trashed flag on every matching record.
func (s *Service) Restore(ctx context.Context, ids []string) error {
	idSet := toSet(ids)
	return s.update(ctx, func(c *collections) error {
		for i := range c.records {
			if idSet[c.records[i].ID] {
				c.records[i].Trashed = false
			}
		}
		return nil
	})
}

// Delete permanently removes every matching record. Irreversible.
func (s *Service) Delete(ctx context.Context, ids []string) error {
	idSet := toSet(ids)
	return s.update(ctx, func(c *collections) error {
		kept := c.records[:0:0]
		for _, record := range c.records {
			if !idSet[record.ID] {
				kept = append(kept, record)
			}
		}
		c.records = kept
		return nil
	})
}

// EmptyTrash permanently removes every trashed record.
func (s *Service) EmptyTrash(ctx context.Context) error {
	return s.update(ctx, func(c *collections) error {
		kept := c.records[:0:0]
		for _, record := range c.records {
			if !record.Trashed {
				kept = append(kept, record)
			}
		}
		c.records = kept
		return nil
	})
}

// SaveToCategory saves a record under the named category, creating the
// category first if no existing name matches (trimmed,
// case-insensitive). Saving always pins: saved items surface in the
// popup's pinned section.
func (s *Service) SaveToCategory(ctx context.Context, id, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyCategoryName
	}
	return s.update(ctx, func(c *collections) error {
		category := findCategory(c.categories, trimmed)
		if category == nil {
			created := store.Category{
				ID:   ulid.Make().String(),
				Name: trimmed,
			}
			c.categories = append(c.categories, created)
			category = &created
		}
		for i := range c.records {
			if c.records[i].ID == id {
				saved := *category
				c.records[i].Category = &saved
				c.records[i].Pinned = true
				break
			}
		}
		return nil
	})
}

// Unsave removes a record from its category and clears the implied pin.
func (s *Service) Unsave(ctx context.Context, id string) error {
	return s.update(ctx, func(c *collections) error {
		for i := range c.records {
			if c.records[i].ID == id {
				c.records[i].Category = nil
				c.records[i].Pinned = false
				break
			}
		}
		return nil
	})
}

// CreateCategory adds a new category. A name colliding with an existing
// one (trimmed, case-insensitive) is rejected with ErrDuplicateCategory.
func (s *Service) CreateCategory(ctx context.Context, name string) (*store.Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrEmptyCategoryName
	}

	var created store.Category
	err := s.update(ctx, func(c *collections) error {
		if existing := findCategory(c.categories, trimmed); existing != nil {
			return fmt.Errorf("category %q already exists: %w", trimmed, ErrDuplicateCategory)
		}
		created = store.Category{
			ID:   ulid.Make().String(),
			Name: trimmed,
		}
		c.categories = append(c.categories, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteCategory removes a category by name and clears the category
// (and the pin it implied) on every member record. An unknown name is a
// no-op.
func (s *Service) DeleteCategory(ctx context.Context, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyCategoryName
	}
	return s.update(ctx, func(c *collections) error {
		target := findCategory(c.categories, trimmed)
		if target == nil {
			return nil
		}
		kept := c.categories[:0:0]
		for _, category := range c.categories {
			if category.ID != target.ID {
				kept = append(kept, category)
			}
		}
		c.categories = kept
		for i := range c.records {
			if c.records[i].Category != nil && c.records[i].Category.ID == target.ID {
				c.records[i].Category = nil
				c.records[i].Pinned = false
			}
		}
		return nil
	})
}

// findCategory resolves a category by trimmed, case-insensitive name.
func findCategory(categories []store.Category, name string) *store.Category {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i := range categories {
		if strings.ToLower(strings.TrimSpace(categories[i].Name)) == needle {
			return &categories[i]
		}
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
