package domain

import "time"

// Tool names a customizer. Saved-design history is partitioned by tool.
type Tool string

const (
	ToolBirthPoster Tool = "birth-poster"
	ToolStarMap     Tool = "star-map"
	ToolPetPortrait Tool = "pet-portrait"
)

// Known reports whether t names a supported customizer.
func (t Tool) Known() bool {
	switch t {
	case ToolBirthPoster, ToolStarMap, ToolPetPortrait:
		return true
	}
	return false
}

// SavedDesign is an entry in a tool's saved-design history.
type SavedDesign struct {
	ID        string           `json:"id"`
	Tool      Tool             `json:"tool"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Thumbnail string           `json:"thumbnail"`
	State     BirthPosterState `json:"state"`
}

// Clone returns a copy of d whose state shares nothing with d.
func (d SavedDesign) Clone() SavedDesign {
	out := d
	out.State = d.State.Clone()
	return out
}
