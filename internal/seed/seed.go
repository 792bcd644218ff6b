// Package seed writes demo saved designs for manual testing.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"posterstudio/internal/domain"
	"posterstudio/internal/poster"
	"posterstudio/internal/pricing"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/service/history"
)

type babySeed struct {
	Name        string
	HeightCm    float64
	WeightGrams float64
	Born        domain.Date
	Place       string
	Orientation domain.Orientation
	Color       string
}

type designSeed struct {
	ID      string
	Name    string
	Size    domain.PosterSize
	FrameID string
	Babies  []babySeed
}

var demoDesigns = []designSeed{
	{
		ID:   "demo-single",
		Name: "Demo Lucía",
		Size: "50x70",
		Babies: []babySeed{
			{Name: "Lucía", HeightCm: 49.5, WeightGrams: 3250, Born: domain.NewDate(2024, time.March, 14), Place: "Guadalajara", Orientation: domain.OrientationLeft, Color: "#F4C2C2"},
		},
	},
	{
		ID:      "demo-twins",
		Name:    "Demo Gemelos",
		Size:    "40x50",
		FrameID: "natural-oak",
		Babies: []babySeed{
			{Name: "Mateo", HeightCm: 47, WeightGrams: 2600, Born: domain.NewDate(2023, time.November, 2), Place: "Monterrey", Orientation: domain.OrientationRight, Color: "#A7C7E7"},
			{Name: "Sofía", HeightCm: 46, WeightGrams: 2480, Born: domain.NewDate(2023, time.November, 2), Place: "Monterrey", Orientation: domain.OrientationLeft, Color: "#F4C2C2"},
		},
	},
	{
		ID:      "demo-siblings",
		Name:    "Demo Hermanos",
		Size:    "70x50",
		FrameID: "black-wood",
		Babies: []babySeed{
			{Name: "Diego", HeightCm: 51, WeightGrams: 3600, Born: domain.NewDate(2018, time.July, 21), Place: "CDMX", Orientation: domain.OrientationRight, Color: "#B5D8B5"},
			{Name: "Valeria", HeightCm: 50, WeightGrams: 3300, Born: domain.NewDate(2020, time.January, 9), Place: "CDMX", Orientation: domain.OrientationLeft, Color: "#F4C2C2"},
			{Name: "Emilio", HeightCm: 48.5, WeightGrams: 3100, Born: domain.NewDate(2022, time.May, 30), Place: "Puebla", Orientation: domain.OrientationRight, Color: "#A7C7E7"},
		},
	},
}

// seededAt is fixed so re-running Apply rewrites the same entries.
var seededAt = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

// Apply merges the demo designs into the birth-poster history held by repo,
// which should be scoped to a profile. It is idempotent via stable ids.
func Apply(ctx context.Context, repo kv.Repository, logger zerolog.Logger) ([]domain.SavedDesign, error) {
	designs := make([]domain.SavedDesign, 0, len(demoDesigns))
	for i, s := range demoDesigns {
		state, err := buildState(s)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", s.ID, err)
		}
		at := seededAt.Add(time.Duration(i) * time.Minute)
		designs = append(designs, domain.SavedDesign{
			ID:        s.ID,
			Tool:      domain.ToolBirthPoster,
			Name:      s.Name,
			CreatedAt: at,
			UpdatedAt: at,
			State:     state,
		})
	}

	store := history.New(repo, domain.ToolBirthPoster, logger)
	store.Load(ctx)
	if err := store.Import(ctx, designs); err != nil {
		return nil, fmt.Errorf("import demo designs: %w", err)
	}
	return designs, nil
}

// buildState drives a Model so every seeded state satisfies the poster invariants.
func buildState(s designSeed) (domain.BirthPosterState, error) {
	m := poster.NewModel()
	m.SetBabyCount(len(s.Babies))
	for i, b := range s.Babies {
		m.SetActiveBabyTab(i)
		m.UpdateActiveBaby(poster.BabyPatch{
			Name:              &b.Name,
			HeightCm:          &b.HeightCm,
			WeightGrams:       &b.WeightGrams,
			BirthDate:         &b.Born,
			BirthPlace:        &b.Place,
			Orientation:       &b.Orientation,
			IllustrationColor: &b.Color,
		})
	}
	m.SetActiveBabyTab(0)
	if !m.SetPosterSize(s.Size) {
		return domain.BirthPosterState{}, fmt.Errorf("size %s not allowed for %d babies", s.Size, len(s.Babies))
	}
	if s.FrameID != "" {
		frame, ok := pricing.FrameByID(s.FrameID)
		if !ok {
			return domain.BirthPosterState{}, fmt.Errorf("unknown frame %s", s.FrameID)
		}
		m.SetFrameStyle(&frame)
	}
	state := m.Snapshot()
	return state, poster.Validate(state)
}
