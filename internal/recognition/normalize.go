package recognition

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// UnknownName is used when a backend returns JSON whose name is missing,
	// null or blank. Catalog entries require a name, so an empty one is
	// treated the same as an absent one.
	UnknownName = "Unknown mushroom"
	// DegradedName marks a record built from unparseable backend text.
	DegradedName = "Recognized"
)

// Attributes is a normalized recognition result.
type Attributes struct {
	Name            string `json:"name"`
	ScientificName  string `json:"scientific_name"`
	IsEdible        bool   `json:"is_edible"`
	Description     string `json:"description"`
	Habitat         string `json:"habitat"`
	Season          string `json:"season"`
	Characteristics string `json:"characteristics"`
}

// Normalize turns backend text into Attributes. The JSON object is taken from
// the first '{' to the last '}', so code fences and chatter around it are
// ignored. The second return value is false when the text could not be
// parsed and the degraded record was returned instead.
func Normalize(raw string) (Attributes, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return degraded(raw), false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return degraded(raw), false
	}

	attrs := Attributes{
		Name:            text(fields, "name"),
		ScientificName:  text(fields, "scientificName"),
		IsEdible:        flag(fields, "isEdible"),
		Description:     text(fields, "description"),
		Habitat:         text(fields, "habitat"),
		Season:          text(fields, "season"),
		Characteristics: text(fields, "characteristics"),
	}
	if attrs.Name == "" {
		attrs.Name = UnknownName
	}
	return attrs, true
}

func degraded(raw string) Attributes {
	return Attributes{
		Name:        DegradedName,
		Description: strings.TrimSpace(raw),
		IsEdible:    false,
	}
}

func text(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// flag accepts a JSON bool or the strings "true"/"false" in any case.
func flag(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}
