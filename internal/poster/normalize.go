package poster

import (
	"fmt"

	"posterstudio/internal/domain"
)

// Normalize returns a deep copy of s repaired so every invariant holds:
// babyCount in 1..4, len(babies) == babyCount, the active tab in range and
// the poster size inside the partition for the baby count.
func Normalize(s domain.BirthPosterState) domain.BirthPosterState {
	out := s.Clone()
	out.BabyCount = clampCount(out.BabyCount)
	out.Babies = resizeBabies(out.Babies, out.BabyCount)
	if out.ActiveBabyTab < 0 {
		out.ActiveBabyTab = 0
	}
	if out.ActiveBabyTab >= out.BabyCount {
		out.ActiveBabyTab = out.BabyCount - 1
	}
	if !IsValidSize(out.BabyCount, out.PosterSize) {
		out.PosterSize = DefaultSize(out.BabyCount)
	}
	if out.BackgroundColor == "" {
		out.BackgroundColor = DefaultBackgroundColor
	}
	if out.ActivePanel == "" {
		out.ActivePanel = domain.PanelBabies
	}
	for i := range out.Babies {
		if out.Babies[i].Orientation == "" {
			out.Babies[i].Orientation = domain.OrientationLeft
		}
		if out.Babies[i].IllustrationStyleID == "" {
			out.Babies[i].IllustrationStyleID = DefaultIllustrationStyle
		}
		if out.Babies[i].IllustrationColor == "" {
			out.Babies[i].IllustrationColor = DefaultIllustrationColor
		}
	}
	return out
}

// Validate checks the invariants without repairing anything.
func Validate(s domain.BirthPosterState) error {
	if s.BabyCount < MinBabies || s.BabyCount > MaxBabies {
		return fmt.Errorf("%w: baby count %d out of range", domain.ErrInvalidState, s.BabyCount)
	}
	if len(s.Babies) != s.BabyCount {
		return fmt.Errorf("%w: %d babies for count %d", domain.ErrInvalidState, len(s.Babies), s.BabyCount)
	}
	if s.ActiveBabyTab < 0 || s.ActiveBabyTab >= s.BabyCount {
		return fmt.Errorf("%w: active tab %d out of range", domain.ErrInvalidState, s.ActiveBabyTab)
	}
	if !IsValidSize(s.BabyCount, s.PosterSize) {
		return fmt.Errorf("%w: size %q not allowed for %d babies", domain.ErrInvalidState, s.PosterSize, s.BabyCount)
	}
	for i, b := range s.Babies {
		if b.HeightCm <= 0 {
			return fmt.Errorf("%w: baby %d has no height", domain.ErrInvalidState, i+1)
		}
	}
	return nil
}
