package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a catalog search.
type SearchParams struct {
	Query string // User's search query

	// EdibleOnly restricts results to edible (true) or inedible (false)
	// species. Nil means no filter.
	EdibleOnly *bool

	// Pagination
	Limit  int
	Offset int

	// SortBy is "relevance" (default) or "name".
	SortBy string

	Highlight bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		SortBy:    "relevance",
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single matching catalog entry.
type SearchHit struct {
	MushroomID     int64             `json:"mushroom_id"`
	Score          float64           `json:"score"`
	Name           string            `json:"name"`
	ScientificName string            `json:"scientific_name,omitempty"`
	IsEdible       bool              `json:"is_edible"`
	Highlights     map[string]string `json:"highlights,omitempty"`
}

// Search executes a catalog query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)

	if params.SortBy == "name" {
		searchRequest.SortBy([]string{"name", "-_score"})
	} else {
		searchRequest.SortBy([]string{"-_score"})
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("scientific_name")
	}

	searchRequest.Fields = []string{"name", "scientific_name", "edibility"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with foreign id", "id", hit.ID)
			continue
		}

		searchHit := SearchHit{MushroomID: id, Score: hit.Score}
		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if sn, ok := hit.Fields["scientific_name"].(string); ok {
			searchHit.ScientificName = sn
		}
		if e, ok := hit.Fields["edibility"].(string); ok {
			searchHit.IsEdible = e == EdibilityEdible
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Names weigh most; descriptive text only helps ranking.
	if q := strings.TrimSpace(params.Query); q != "" {
		textQueries := []query.Query{}

		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		sciMatch := bleve.NewMatchQuery(q)
		sciMatch.SetField("scientific_name")
		sciMatch.SetBoost(2.5)
		textQueries = append(textQueries, sciMatch)

		for _, field := range []string{"description", "habitat", "characteristics", "season"} {
			m := bleve.NewMatchQuery(q)
			m.SetField(field)
			m.SetBoost(0.7)
			textQueries = append(textQueries, m)
		}

		// Add fuzzy matching for typo tolerance on names
		lower := strings.ToLower(q)
		for _, field := range []string{"name", "scientific_name"} {
			fuzzy := bleve.NewFuzzyQuery(lower)
			fuzzy.SetFuzziness(1)
			fuzzy.SetField(field)
			fuzzy.SetBoost(0.8)
			textQueries = append(textQueries, fuzzy)
		}

		// Prefix query for autocomplete (minimum 2 chars)
		if len([]rune(lower)) >= 2 {
			for _, field := range []string{"name", "scientific_name"} {
				prefix := bleve.NewPrefixQuery(lower)
				prefix.SetField(field)
				prefix.SetBoost(0.5)
				textQueries = append(textQueries, prefix)
			}
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.EdibleOnly != nil {
		value := EdibilityInedible
		if *params.EdibleOnly {
			value = EdibilityEdible
		}
		tq := bleve.NewTermQuery(value)
		tq.SetField("edibility")
		queries = append(queries, tq)
	}

	// Combine all queries with AND
	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
