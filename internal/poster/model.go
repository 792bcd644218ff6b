package poster

import (
	"reflect"

	"golang.org/x/text/language"

	"posterstudio/internal/domain"
)

const (
	DefaultHeightCm          = 50
	DefaultIllustrationStyle = "classic"
	DefaultIllustrationColor = "#E8B4B8"
	DefaultBackgroundColor   = "#FFFFFF"
)

// DefaultBaby returns the configuration given to a newly added baby.
func DefaultBaby() domain.BabyConfig {
	return domain.BabyConfig{
		HeightCm:            DefaultHeightCm,
		Orientation:         domain.OrientationLeft,
		IllustrationStyleID: DefaultIllustrationStyle,
		IllustrationColor:   DefaultIllustrationColor,
	}
}

// DefaultState returns a freshly constructed poster configuration.
func DefaultState() domain.BirthPosterState {
	return domain.BirthPosterState{
		BabyCount:       1,
		Babies:          []domain.BabyConfig{DefaultBaby()},
		ActiveBabyTab:   0,
		PosterSize:      DefaultSize(1),
		BackgroundColor: DefaultBackgroundColor,
		ActivePanel:     domain.PanelBabies,
	}
}

// Model owns an in-progress design. Mutations go through its methods so the
// size partition and tab invariants always hold. A Model is not safe for
// concurrent use.
type Model struct {
	state     domain.BirthPosterState
	locale    language.Tag
	version   uint64
	observers map[int]func(domain.BirthPosterState)
	nextObs   int
}

type Option func(*Model)

// WithLocale selects the language used for derived text.
func WithLocale(tag language.Tag) Option {
	return func(m *Model) { m.locale = tag }
}

// WithState starts the model from an existing configuration.
func WithState(s domain.BirthPosterState) Option {
	return func(m *Model) { m.state = Normalize(s) }
}

func NewModel(opts ...Option) *Model {
	m := &Model{
		state:     DefaultState(),
		locale:    language.Spanish,
		observers: make(map[int]func(domain.BirthPosterState)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns a deep copy of the live state.
func (m *Model) Snapshot() domain.BirthPosterState {
	return m.state.Clone()
}

// Version increases on every effective mutation.
func (m *Model) Version() uint64 {
	return m.version
}

// Locale returns the language used for derived text.
func (m *Model) Locale() language.Tag {
	return m.locale
}

// Subscribe registers fn to receive a snapshot after every effective
// mutation. The returned func removes the registration.
func (m *Model) Subscribe(fn func(domain.BirthPosterState)) func() {
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	return func() { delete(m.observers, id) }
}

func (m *Model) changed() {
	m.version++
	for _, fn := range m.observers {
		fn(m.state.Clone())
	}
}

// SetBabyCount resizes the baby list to n (clamped to 1..4), keeps the active
// tab in range and moves the poster size into the matching partition when
// the current size is no longer valid.
func (m *Model) SetBabyCount(n int) {
	n = clampCount(n)
	if n == m.state.BabyCount && len(m.state.Babies) == n {
		return
	}
	m.state.Babies = resizeBabies(m.state.Babies, n)
	m.state.BabyCount = n
	if m.state.ActiveBabyTab >= n {
		m.state.ActiveBabyTab = n - 1
	}
	if m.state.ActiveBabyTab < 0 {
		m.state.ActiveBabyTab = 0
	}
	if !IsValidSize(n, m.state.PosterSize) {
		m.state.PosterSize = DefaultSize(n)
	}
	m.changed()
}

// UpdateActiveBaby merges patch into the baby at the active tab. It reports
// false when there is no baby at that index.
func (m *Model) UpdateActiveBaby(patch BabyPatch) bool {
	idx := m.state.ActiveBabyTab
	if idx < 0 || idx >= len(m.state.Babies) {
		return false
	}
	m.state.Babies[idx] = patch.Apply(m.state.Babies[idx])
	m.changed()
	return true
}

// SetActiveBabyTab selects the baby edited by UpdateActiveBaby.
func (m *Model) SetActiveBabyTab(i int) bool {
	if i < 0 || i >= m.state.BabyCount {
		return false
	}
	if i != m.state.ActiveBabyTab {
		m.state.ActiveBabyTab = i
		m.changed()
	}
	return true
}

// SetPosterSize commits size only when it belongs to the partition for the
// current baby count. Other sizes are ignored and false is returned.
func (m *Model) SetPosterSize(size domain.PosterSize) bool {
	if !IsValidSize(m.state.BabyCount, size) {
		return false
	}
	if size != m.state.PosterSize {
		m.state.PosterSize = size
		m.changed()
	}
	return true
}

// SetFrameStyle selects a frame; nil removes it.
func (m *Model) SetFrameStyle(f *domain.FrameStyle) {
	if f != nil {
		cp := *f
		f = &cp
	}
	m.state.FrameStyle = f
	m.changed()
}

func (m *Model) SetBackgroundColor(color string) {
	if color == m.state.BackgroundColor {
		return
	}
	m.state.BackgroundColor = color
	m.changed()
}

func (m *Model) SetActivePanel(p domain.Panel) {
	if p == m.state.ActivePanel {
		return
	}
	m.state.ActivePanel = p
	m.changed()
}

// Reset restores the default configuration.
func (m *Model) Reset() {
	m.state = DefaultState()
	m.changed()
}

// Replace loads s (normalized) as the live state, as when opening a saved design.
func (m *Model) Replace(s domain.BirthPosterState) {
	m.state = Normalize(s)
	m.changed()
}

// HasUnsavedChanges reports whether the state differs from a fresh default.
func (m *Model) HasUnsavedChanges() bool {
	return !reflect.DeepEqual(m.state, DefaultState())
}

// TextLines returns the printed text for the live state.
func (m *Model) TextLines() []string {
	return TextLines(m.state, m.locale)
}

func clampCount(n int) int {
	if n < MinBabies {
		return MinBabies
	}
	if n > MaxBabies {
		return MaxBabies
	}
	return n
}

func resizeBabies(babies []domain.BabyConfig, n int) []domain.BabyConfig {
	if len(babies) >= n {
		return babies[:n:n]
	}
	out := make([]domain.BabyConfig, n)
	copy(out, babies)
	for i := len(babies); i < n; i++ {
		out[i] = DefaultBaby()
	}
	return out
}
