package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for message documents.
//
// Content gets English stemming and term vectors for highlighting; the
// ID fields use the keyword analyzer for exact filter matches.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Content - the only full-text field.
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = en.AnalyzerName
	contentFieldMapping.Store = true
	contentFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	// ID fields - exact match filters.
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	spaceFieldMapping := bleve.NewTextFieldMapping()
	spaceFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("space_id", spaceFieldMapping)

	channelFieldMapping := bleve.NewTextFieldMapping()
	channelFieldMapping.Analyzer = keyword.Name
	channelFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("channel_id", channelFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = keyword.Name
	authorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("author_id", authorFieldMapping)

	// Created timestamp - for recency sorting.
	createdFieldMapping := bleve.NewNumericFieldMapping()
	createdFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
