package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for catalog documents.
//
// Common names get English stemming ("chanterelles" finds "Chanterelle").
// Latin binomials use the simple analyzer so stemming does not mangle them.
// Edibility is a keyword for exact filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Name field - primary search target
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	sciFieldMapping := bleve.NewTextFieldMapping()
	sciFieldMapping.Analyzer = simple.Name
	sciFieldMapping.Store = true
	sciFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("scientific_name", sciFieldMapping)

	// Long text - searchable but not stored
	for _, field := range []string{"description", "habitat", "characteristics"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.Store = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	seasonFieldMapping := bleve.NewTextFieldMapping()
	seasonFieldMapping.Analyzer = simple.Name
	seasonFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("season", seasonFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	edibilityFieldMapping := bleve.NewTextFieldMapping()
	edibilityFieldMapping.Analyzer = keyword.Name
	edibilityFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("edibility", edibilityFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
