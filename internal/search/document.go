package search

import (
	"strconv"

	"github.com/findshroom/findshroom-server/internal/domain"
)

// MushroomDocument is the indexed form of a catalog entry.
type MushroomDocument struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ScientificName  string `json:"scientific_name"`
	Description     string `json:"description"`
	Habitat         string `json:"habitat"`
	Season          string `json:"season"`
	Characteristics string `json:"characteristics"`
	Edibility       string `json:"edibility"`
}

// Edibility keyword values.
const (
	EdibilityEdible   = "edible"
	EdibilityInedible = "inedible"
)

// DocumentID is the index key of a catalog entry.
func DocumentID(mushroomID int64) string {
	return strconv.FormatInt(mushroomID, 10)
}

// NewMushroomDocument converts a catalog entry to its indexed form.
func NewMushroomDocument(m *domain.Mushroom) *MushroomDocument {
	edibility := EdibilityInedible
	if m.IsEdible {
		edibility = EdibilityEdible
	}
	return &MushroomDocument{
		ID:              DocumentID(m.ID),
		Name:            m.Name,
		ScientificName:  m.ScientificName,
		Description:     m.Description,
		Habitat:         m.Habitat,
		Season:          m.Season,
		Characteristics: m.Characteristics,
		Edibility:       edibility,
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *MushroomDocument) ToMap() map[string]any {
	return map[string]any{
		"id":              d.ID,
		"name":            d.Name,
		"scientific_name": d.ScientificName,
		"description":     d.Description,
		"habitat":         d.Habitat,
		"season":          d.Season,
		"characteristics": d.Characteristics,
		"edibility":       d.Edibility,
	}
}
