package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for chart documents: stemmed
// full-text on title, unstemmed text on artist and filename, keyword exact
// matching for tags and status, numeric for recency sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleField)

	// Artist names should not be stemmed ("Savant" is not "savan").
	artistField := bleve.NewTextFieldMapping()
	artistField.Analyzer = simple.Name
	artistField.Store = true
	artistField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("artist", artistField)

	filenameField := bleve.NewTextFieldMapping()
	filenameField.Analyzer = simple.Name
	filenameField.Store = true
	docMapping.AddFieldMappingsAt("filename", filenameField)

	// Keyword fields: exact match, facetable.
	for _, name := range []string{"id", "set_id", "checksum"} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = keyword.Name
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	// Tags keep compound values intact ("drum and bass" is one term).
	tagsField := bleve.NewTextFieldMapping()
	tagsField.Analyzer = keyword.Name
	tagsField.Store = true
	tagsField.IncludeTermVectors = true // For faceting
	docMapping.AddFieldMappingsAt("tags", tagsField)

	statusField := bleve.NewTextFieldMapping()
	statusField.Analyzer = keyword.Name
	statusField.Store = true
	docMapping.AddFieldMappingsAt("status", statusField)

	scannedAtField := bleve.NewNumericFieldMapping()
	scannedAtField.Store = true
	docMapping.AddFieldMappingsAt("scanned_at", scannedAtField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
