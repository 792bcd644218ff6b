package poster

import (
	"encoding/json"
	"fmt"

	"posterstudio/internal/domain"
)

// BabyPatch is a partial update of a BabyConfig. Nil fields are left alone;
// the Clear flags reset nullable fields to null.
type BabyPatch struct {
	Name                *string
	HeightCm            *float64
	WeightGrams         *float64
	ClearWeight         bool
	BirthDate           *domain.Date
	ClearBirthDate      bool
	BirthPlace          *string
	ClearBirthPlace     bool
	Orientation         *domain.Orientation
	IllustrationStyleID *string
	IllustrationColor   *string
}

// Apply returns b with the patch merged in.
func (p BabyPatch) Apply(b domain.BabyConfig) domain.BabyConfig {
	out := b.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.HeightCm != nil {
		out.HeightCm = *p.HeightCm
	}
	switch {
	case p.ClearWeight:
		out.WeightGrams = nil
	case p.WeightGrams != nil:
		w := *p.WeightGrams
		out.WeightGrams = &w
	}
	switch {
	case p.ClearBirthDate:
		out.BirthDate = nil
	case p.BirthDate != nil:
		d := *p.BirthDate
		out.BirthDate = &d
	}
	switch {
	case p.ClearBirthPlace:
		out.BirthPlace = nil
	case p.BirthPlace != nil:
		s := *p.BirthPlace
		out.BirthPlace = &s
	}
	if p.Orientation != nil {
		out.Orientation = *p.Orientation
	}
	if p.IllustrationStyleID != nil {
		out.IllustrationStyleID = *p.IllustrationStyleID
	}
	if p.IllustrationColor != nil {
		out.IllustrationColor = *p.IllustrationColor
	}
	return out
}

// ParseBabyPatch decodes a JSON object of BabyConfig fields. An explicit
// null clears a nullable field; absent keys are untouched.
func ParseBabyPatch(raw map[string]json.RawMessage) (BabyPatch, error) {
	var p BabyPatch
	for key, val := range raw {
		isNull := string(val) == "null"
		var err error
		switch key {
		case "name":
			p.Name = new(string)
			err = json.Unmarshal(val, p.Name)
		case "heightCm":
			p.HeightCm = new(float64)
			err = json.Unmarshal(val, p.HeightCm)
		case "weightGrams":
			if isNull {
				p.ClearWeight = true
				continue
			}
			p.WeightGrams = new(float64)
			err = json.Unmarshal(val, p.WeightGrams)
		case "birthDate":
			if isNull {
				p.ClearBirthDate = true
				continue
			}
			p.BirthDate = new(domain.Date)
			err = json.Unmarshal(val, p.BirthDate)
		case "birthPlace":
			if isNull {
				p.ClearBirthPlace = true
				continue
			}
			p.BirthPlace = new(string)
			err = json.Unmarshal(val, p.BirthPlace)
		case "orientation":
			p.Orientation = new(domain.Orientation)
			err = json.Unmarshal(val, p.Orientation)
		case "illustrationStyleId":
			p.IllustrationStyleID = new(string)
			err = json.Unmarshal(val, p.IllustrationStyleID)
		case "illustrationColor":
			p.IllustrationColor = new(string)
			err = json.Unmarshal(val, p.IllustrationColor)
		default:
			return BabyPatch{}, fmt.Errorf("unknown baby field %q", key)
		}
		if err != nil {
			return BabyPatch{}, fmt.Errorf("field %q: %w", key, err)
		}
	}
	return p, nil
}
