package poster

import (
	"strconv"
	"strings"

	"posterstudio/internal/domain"
)

const (
	MinBabies = 1
	MaxBabies = 4
)

var (
	verticalSizes   = []domain.PosterSize{"30x40", "40x50", "50x70", "70x100"}
	horizontalSizes = []domain.PosterSize{"40x30", "50x40", "70x50", "100x70"}
)

// IsHorizontal reports whether babyCount selects the horizontal size partition.
func IsHorizontal(babyCount int) bool {
	return babyCount >= 3
}

func partition(babyCount int) []domain.PosterSize {
	if IsHorizontal(babyCount) {
		return horizontalSizes
	}
	return verticalSizes
}

// PermittedSizes returns the ordered size codes valid for babyCount.
func PermittedSizes(babyCount int) []domain.PosterSize {
	return append([]domain.PosterSize(nil), partition(babyCount)...)
}

// DefaultSize returns the first member of the partition for babyCount.
func DefaultSize(babyCount int) domain.PosterSize {
	return partition(babyCount)[0]
}

// IsValidSize reports whether size belongs to the partition for babyCount.
func IsValidSize(babyCount int, size domain.PosterSize) bool {
	for _, s := range partition(babyCount) {
		if s == size {
			return true
		}
	}
	return false
}

// AllSizes lists every known size code, vertical first.
func AllSizes() []domain.PosterSize {
	out := make([]domain.PosterSize, 0, len(verticalSizes)+len(horizontalSizes))
	out = append(out, verticalSizes...)
	return append(out, horizontalSizes...)
}

// Dimensions parses a "WxH" size code into centimeters.
func Dimensions(size domain.PosterSize) (widthCm, heightCm float64, ok bool) {
	w, h, found := strings.Cut(string(size), "x")
	if !found {
		return 0, 0, false
	}
	wv, err := strconv.ParseFloat(w, 64)
	if err != nil || wv <= 0 {
		return 0, 0, false
	}
	hv, err := strconv.ParseFloat(h, 64)
	if err != nil || hv <= 0 {
		return 0, 0, false
	}
	return wv, hv, true
}
