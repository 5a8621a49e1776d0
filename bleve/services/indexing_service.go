package services

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

// keywordFields are indexed as a single exact token for filtering.
var keywordFields = []string{"application_number", "owner_mobile", "status", "application_kind", "category", "district_key"}

// textFields are analysed for free-text search.
var textFields = []string{"owner_name", "property_name", "district", "tehsil", "address_line"}

type IndexingServiceInterface interface {
	IndexDocument(id string, document interface{}) error
	BulkIndexDocuments(documents map[string]interface{}) error
	DeleteDocument(id string) error
	SearchIndex(q query.Query, size, from int) (*bleve.SearchResult, error)
	Count() (uint64, error)
	Close() error
}

// IndexingService owns the application search index.
type IndexingService struct {
	index  bleve.Index
	logger *zap.Logger
}

// NewIndexingService opens the index at path, creating it if needed. An
// empty path keeps the index in memory.
func NewIndexingService(logger *zap.Logger, path string) (*IndexingService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		idx bleve.Index
		err error
	)
	switch {
	case path == "":
		idx, err = bleve.NewMemOnly(applicationMapping())
	case pathExists(path):
		idx, err = bleve.Open(path)
	default:
		idx, err = bleve.New(path, applicationMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index %q: %w", path, err)
	}
	return &IndexingService{index: idx, logger: logger}, nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func applicationMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()
	for _, field := range keywordFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		doc.AddFieldMappingsAt(field, fm)
	}
	for _, field := range textFields {
		fm := bleve.NewTextFieldMapping()
		fm.Store = true
		doc.AddFieldMappingsAt(field, fm)
	}
	updated := bleve.NewDateTimeFieldMapping()
	updated.Store = true
	doc.AddFieldMappingsAt("updated_at", updated)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = doc
	return indexMapping
}

// SearchIndex runs q and returns the stored fields of each hit.
func (s *IndexingService) SearchIndex(q query.Query, size, from int) (*bleve.SearchResult, error) {
	searchRequest := bleve.NewSearchRequestOptions(q, size, from, false)
	searchRequest.Fields = []string{"*"}
	searchRequest.SortBy([]string{"-_score", "-updated_at"})

	searchResult, err := s.index.Search(searchRequest)
	if err != nil {
		s.logger.Error("Search failed", zap.Error(err))
		return nil, err
	}
	return searchResult, nil
}

func (s *IndexingService) IndexDocument(id string, document interface{}) error {
	if err := s.index.Index(id, document); err != nil {
		s.logger.Error("Failed to index document", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Debug("Indexed document", zap.String("id", id))
	return nil
}

func (s *IndexingService) BulkIndexDocuments(documents map[string]interface{}) error {
	batch := s.index.NewBatch()
	for id, doc := range documents {
		if err := batch.Index(id, doc); err != nil {
			s.logger.Error("Failed to add doc to batch", zap.String("id", id), zap.Error(err))
			return err
		}
	}

	if err := s.index.Batch(batch); err != nil {
		s.logger.Error("Failed to execute batch", zap.Error(err))
		return err
	}

	s.logger.Info("Successfully bulk indexed documents", zap.Int("count", len(documents)))
	return nil
}

func (s *IndexingService) DeleteDocument(id string) error {
	if err := s.index.Delete(id); err != nil {
		s.logger.Error("Failed to delete document", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *IndexingService) Count() (uint64, error) {
	return s.index.DocCount()
}

func (s *IndexingService) Close() error {
	return s.index.Close()
}
