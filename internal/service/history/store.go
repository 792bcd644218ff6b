package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"posterstudio/internal/domain"
	"posterstudio/internal/metrics"
	"posterstudio/internal/repository/kv"
)

const (
	// StorageKey addresses the single collection shared by every tool.
	StorageKey = "saved-designs"
	// MaxPerTool caps each tool's history.
	MaxPerTool = 20
)

// Store is one tool's view of the shared saved-design collection. Reads
// filter to the tool; writes replace the tool's slice and leave other tools'
// entries as they were, except that every tool is re-capped to MaxPerTool.
//
// Writes are read-modify-write without locking: two writers sharing a
// backend key can overwrite each other's changes, including for other tools.
// A Store is not safe for concurrent use.
type Store struct {
	repo    kv.Repository
	tool    domain.Tool
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
	designs []domain.SavedDesign
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the random id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func New(repo kv.Repository, tool domain.Tool, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		tool:   tool,
		logger: logger.With().Str("tool", string(tool)).Logger(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tool returns the namespace this store reads and writes.
func (s *Store) Tool() domain.Tool {
	return s.tool
}

// Load reads the tool's designs, newest first. Unreadable data yields an
// empty history rather than an error.
func (s *Store) Load(ctx context.Context) []domain.SavedDesign {
	records, err := s.readAll(ctx)
	if err != nil {
		metrics.HistoryCorruptLoads.Inc()
		s.logger.Warn().Err(err).Msg("saved designs unreadable, starting empty")
		s.designs = nil
		return nil
	}

	designs := make([]domain.SavedDesign, 0, len(records))
	for _, rec := range records {
		if rec.Tool != s.tool {
			continue
		}
		var d domain.SavedDesign
		if err := json.Unmarshal(rec.raw, &d); err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable saved design")
			continue
		}
		designs = append(designs, d)
	}
	sort.SliceStable(designs, func(i, j int) bool {
		return designs[i].UpdatedAt.After(designs[j].UpdatedAt)
	})
	s.designs = designs
	return s.Designs()
}

// Designs returns copies of the in-memory designs, newest first.
func (s *Store) Designs() []domain.SavedDesign {
	out := make([]domain.SavedDesign, len(s.designs))
	for i, d := range s.designs {
		out[i] = d.Clone()
	}
	return out
}

// Get returns a copy of the design with id.
func (s *Store) Get(id string) (domain.SavedDesign, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.designs[i].Clone(), true
	}
	return domain.SavedDesign{}, false
}

// Save records a new design at the front of the history. An empty name
// becomes "Design N". The returned design is valid even when persisting
// fails; the error reports the failed write.
func (s *Store) Save(ctx context.Context, state domain.BirthPosterState, thumbnail, name string) (domain.SavedDesign, error) {
	if name == "" {
		name = fmt.Sprintf("Design %d", len(s.designs)+1)
	}
	now := s.now()
	d := domain.SavedDesign{
		ID:        s.newID(),
		Tool:      s.tool,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Thumbnail: thumbnail,
		State:     state.Clone(),
	}
	s.designs = append([]domain.SavedDesign{d}, s.designs...)
	if len(s.designs) > MaxPerTool {
		s.designs = s.designs[:MaxPerTool]
	}
	return d.Clone(), s.persist(ctx)
}

// Update replaces a design's state and thumbnail, renames it when name is
// non-empty and moves it to the front. Unknown ids yield domain.ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, state domain.BirthPosterState, thumbnail string, name *string) (domain.SavedDesign, error) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.SavedDesign{}, domain.ErrNotFound
	}
	d := s.designs[i]
	d.State = state.Clone()
	d.Thumbnail = thumbnail
	d.UpdatedAt = s.now()
	if name != nil && *name != "" {
		d.Name = *name
	}
	rest := append(s.designs[:i:i], s.designs[i+1:]...)
	s.designs = append([]domain.SavedDesign{d}, rest...)
	return d.Clone(), s.persist(ctx)
}

// Rename changes a design's name without touching its position.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.designs[i].Name = name
	return s.persist(ctx)
}

// Delete removes a design.
func (s *Store) Delete(ctx context.Context, id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	s.designs = append(s.designs[:i:i], s.designs[i+1:]...)
	return s.persist(ctx)
}

// Clear removes every design of the tool.
func (s *Store) Clear(ctx context.Context) error {
	s.designs = nil
	return s.persist(ctx)
}

// Import merges previously exported designs into the history, replacing
// entries with the same id and keeping their original timestamps. Designs
// of other tools are rejected.
func (s *Store) Import(ctx context.Context, designs []domain.SavedDesign) error {
	for _, d := range designs {
		if d.Tool != s.tool {
			return fmt.Errorf("import design %s: tool %q does not match %q", d.ID, d.Tool, s.tool)
		}
	}
	for _, d := range designs {
		d = d.Clone()
		if i := s.indexOf(d.ID); i >= 0 {
			s.designs[i] = d
			continue
		}
		s.designs = append(s.designs, d)
	}
	sort.SliceStable(s.designs, func(i, j int) bool {
		return s.designs[i].UpdatedAt.After(s.designs[j].UpdatedAt)
	})
	if len(s.designs) > MaxPerTool {
		s.designs = s.designs[:MaxPerTool]
	}
	return s.persist(ctx)
}

func (s *Store) indexOf(id string) int {
	for i, d := range s.designs {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// record is one element of the persisted array. raw keeps the entry's bytes
// so entries of other tools are written back unchanged.
type record struct {
	Tool      domain.Tool
	UpdatedAt time.Time
	raw       json.RawMessage
}

type recordHead struct {
	Tool      domain.Tool     `json:"tool"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

// parseUpdatedAt accepts an RFC 3339 string or epoch milliseconds. Anything
// else sorts as the zero time.
func parseUpdatedAt(raw json.RawMessage) time.Time {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
			return t
		}
		return time.Time{}
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC()
	}
	return time.Time{}
}

var errCorrupt = errors.New("saved designs corrupt")

func (s *Store) readAll(ctx context.Context) ([]record, error) {
	data, err := s.repo.Load(ctx, StorageKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load saved designs: %w", err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	records := make([]record, 0, len(raws))
	for _, raw := range raws {
		var head recordHead
		if err := json.Unmarshal(raw, &head); err != nil {
			// Kept without a tool so persist writes it back untouched.
			s.logger.Warn().Err(err).Msg("saved-design entry has no readable tool")
			records = append(records, record{raw: raw})
			continue
		}
		records = append(records, record{
			Tool:      head.Tool,
			UpdatedAt: parseUpdatedAt(head.UpdatedAt),
			raw:       raw,
		})
	}
	return records, nil
}

// persist reads the whole collection, swaps in this tool's designs, then
// keeps the newest MaxPerTool entries of every tool and writes it all back.
func (s *Store) persist(ctx context.Context) (err error) {
	defer func() {
		metrics.HistoryPersists.WithLabelValues(string(s.tool), metrics.Outcome(err)).Inc()
		if err != nil {
			s.logger.Error().Err(err).Msg("persist saved designs")
		}
	}()

	existing, err := s.readAll(ctx)
	if err != nil {
		if !errors.Is(err, errCorrupt) {
			return err
		}
		existing = nil
	}

	merged := make([]record, 0, len(s.designs)+len(existing))
	for _, d := range s.designs {
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode design %s: %w", d.ID, err)
		}
		merged = append(merged, record{Tool: d.Tool, UpdatedAt: d.UpdatedAt, raw: raw})
	}
	for _, rec := range existing {
		if rec.Tool != s.tool {
			merged = append(merged, rec)
		}
	}

	out := make([]json.RawMessage, 0, len(merged))
	for _, group := range groupByTool(merged) {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].UpdatedAt.After(group[j].UpdatedAt)
		})
		if group[0].Tool != "" && len(group) > MaxPerTool {
			group = group[:MaxPerTool]
		}
		for _, rec := range group {
			out = append(out, rec.raw)
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode saved designs: %w", err)
	}
	return s.repo.Save(ctx, StorageKey, data)
}

// groupByTool partitions records by tool, ordering groups by first appearance.
func groupByTool(records []record) [][]record {
	index := make(map[domain.Tool]int)
	var groups [][]record
	for _, rec := range records {
		i, ok := index[rec.Tool]
		if !ok {
			i = len(groups)
			index[rec.Tool] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rec)
	}
	return groups
}
