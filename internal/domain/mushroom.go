package domain

// Mushroom is a catalog entry, created by saving a recognition result or by manual entry.
type Mushroom struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	ScientificName  string `json:"scientific_name"`
	Description     string `json:"description"`
	IsEdible        bool   `json:"is_edible"`
	ImageRef        string `json:"image_ref,omitempty"`
	Habitat         string `json:"habitat,omitempty"`
	Season          string `json:"season,omitempty"`
	Characteristics string `json:"characteristics,omitempty"`
}

// IsNew reports whether the mushroom has not been stored yet.
// Saving a new mushroom inserts it; saving an existing one updates it.
func (m *Mushroom) IsNew() bool {
	return m.ID == 0
}
