package domain

// PosterSize is a physical poster size code of the form "WxH" in centimeters.
type PosterSize string

// Orientation is the facing direction of a baby illustration.
type Orientation string

const (
	OrientationLeft  Orientation = "left"
	OrientationRight Orientation = "right"
)

// Panel identifies the customizer panel currently open. It is UI-only state.
type Panel string

const (
	PanelBabies Panel = "babies"
	PanelLayout Panel = "layout"
	PanelFrame  Panel = "frame"
	PanelSize   Panel = "size"
)

// FrameStyle describes a purchasable frame.
type FrameStyle struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

// BabyConfig is one subject printed on the poster.
type BabyConfig struct {
	Name                string      `json:"name"`
	HeightCm            float64     `json:"heightCm"`
	WeightGrams         *float64    `json:"weightGrams"`
	BirthDate           *Date       `json:"birthDate"`
	BirthPlace          *string     `json:"birthPlace"`
	Orientation         Orientation `json:"orientation"`
	IllustrationStyleID string      `json:"illustrationStyleId"`
	IllustrationColor   string      `json:"illustrationColor"`
}

// BirthPosterState is the serializable configuration of a birth poster.
type BirthPosterState struct {
	BabyCount       int          `json:"babyCount"`
	Babies          []BabyConfig `json:"babies"`
	ActiveBabyTab   int          `json:"activeBabyTab"`
	PosterSize      PosterSize   `json:"posterSize"`
	FrameStyle      *FrameStyle  `json:"frameStyle"`
	BackgroundColor string       `json:"backgroundColor"`
	ActivePanel     Panel        `json:"activePanel"`
}

// Clone returns a copy of b that shares no pointers with it.
func (b BabyConfig) Clone() BabyConfig {
	out := b
	if b.WeightGrams != nil {
		w := *b.WeightGrams
		out.WeightGrams = &w
	}
	if b.BirthDate != nil {
		d := *b.BirthDate
		out.BirthDate = &d
	}
	if b.BirthPlace != nil {
		p := *b.BirthPlace
		out.BirthPlace = &p
	}
	return out
}

// Clone returns a fully independent deep copy of s.
func (s BirthPosterState) Clone() BirthPosterState {
	out := s
	if s.Babies != nil {
		out.Babies = make([]BabyConfig, len(s.Babies))
		for i, b := range s.Babies {
			out.Babies[i] = b.Clone()
		}
	}
	if s.FrameStyle != nil {
		f := *s.FrameStyle
		out.FrameStyle = &f
	}
	return out
}
