package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a message search.
type SearchParams struct {
	Query   string // User's search query
	SpaceID string // Required scope; searches never cross spaces

	// Filters
	ChannelID string // Optional channel scope
	AuthorID  string // Optional author filter

	// Pagination
	Limit  int
	Offset int

	// Options
	Highlight bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Offset:    0,
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

// SearchHit represents a single matching message.
type SearchHit struct {
	ID        string            `json:"id"`
	ChannelID string            `json:"channel_id"`
	AuthorID  string            `json:"author_id"`
	Score     float64           `json:"score"`
	Content   string            `json:"content"`
	CreatedAt int64             `json:"created_at"`
	Highlight map[string]string `json:"highlight,omitempty"`
}

// Search executes a message search scoped to a space.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	// Relevance first, recency as tiebreaker.
	searchRequest.SortBy([]string{"-_score", "-created_at"})

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("content")
	}

	searchRequest.Fields = []string{"channel_id", "author_id", "content", "created_at"}

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
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if c, ok := hit.Fields["channel_id"].(string); ok {
			searchHit.ChannelID = c
		}
		if a, ok := hit.Fields["author_id"].(string); ok {
			searchHit.AuthorID = a
		}
		if c, ok := hit.Fields["content"].(string); ok {
			searchHit.Content = c
		}
		if ts, ok := hit.Fields["created_at"].(float64); ok {
			searchHit.CreatedAt = int64(ts)
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlight = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlight[field] = fragments[0]
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

	if params.Query != "" {
		textQueries := []query.Query{}

		contentMatch := bleve.NewMatchQuery(params.Query)
		contentMatch.SetField("content")
		contentMatch.SetBoost(2.0)
		textQueries = append(textQueries, contentMatch)

		// Fuzzy matching for typo tolerance.
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("content")
		fuzzyQuery.SetBoost(0.5)
		textQueries = append(textQueries, fuzzyQuery)

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Space scope is mandatory.
	spaceQuery := bleve.NewTermQuery(params.SpaceID)
	spaceQuery.SetField("space_id")
	queries = append(queries, spaceQuery)

	if params.ChannelID != "" {
		channelQuery := bleve.NewTermQuery(params.ChannelID)
		channelQuery.SetField("channel_id")
		queries = append(queries, channelQuery)
	}

	if params.AuthorID != "" {
		authorQuery := bleve.NewTermQuery(params.AuthorID)
		authorQuery.SetField("author_id")
		queries = append(queries, authorQuery)
	}

	return bleve.NewConjunctionQuery(queries...)
}
