package repositories

import (
	"strings"
	"time"

	bleveModels "homestay-registration-backend/bleve/models"
	"homestay-registration-backend/bleve/services"
	"homestay-registration-backend/config"
	"homestay-registration-backend/db/models"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

type BleveRepositoryInterface interface {
	IndexSingleApplication(app models.Application) error
	IndexExistingApplications(apps []models.Application) error
	SearchApplications(filter SearchFilter) (*bleveModels.SearchResponse, error)
}

type BleveRepository struct {
	indexer services.IndexingServiceInterface
}

func NewBleveRepository(indexer services.IndexingServiceInterface) *BleveRepository {
	return &BleveRepository{indexer: indexer}
}

// ApplicationDocument is what the search index holds for one application.
type ApplicationDocument struct {
	ID                string    `json:"id"`
	ApplicationNumber string    `json:"application_number,omitempty"`
	OwnerName         string    `json:"owner_name"`
	OwnerMobile       string    `json:"owner_mobile"`
	PropertyName      string    `json:"property_name"`
	District          string    `json:"district"`
	DistrictKey       string    `json:"district_key"`
	Tehsil            string    `json:"tehsil"`
	AddressLine       string    `json:"address_line"`
	Status            string    `json:"status"`
	Kind              string    `json:"application_kind"`
	Category          string    `json:"category,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func districtKey(district string) string {
	return strings.ToLower(strings.TrimSpace(district))
}

func documentOf(app models.Application) ApplicationDocument {
	doc := ApplicationDocument{
		ID:           app.ID.String(),
		OwnerName:    app.OwnerName,
		OwnerMobile:  app.OwnerMobile,
		PropertyName: app.PropertyName,
		District:     app.District,
		DistrictKey:  districtKey(app.District),
		Tehsil:       app.Tehsil,
		AddressLine:  app.AddressLine,
		Status:       string(app.Status),
		Kind:         string(app.Kind),
		Category:     string(app.Category),
		UpdatedAt:    app.UpdatedAt,
	}
	if app.ApplicationNumber != nil {
		doc.ApplicationNumber = *app.ApplicationNumber
	}
	return doc
}

func (r *BleveRepository) IndexSingleApplication(app models.Application) error {
	if err := r.indexer.IndexDocument(app.ID.String(), documentOf(app)); err != nil {
		config.Logger.Error("Failed to index application", zap.Error(err), zap.String("applicationID", app.ID.String()))
		return err
	}
	return nil
}

func (r *BleveRepository) IndexExistingApplications(apps []models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	docs := make(map[string]interface{}, len(apps))
	for _, app := range apps {
		docs[app.ID.String()] = documentOf(app)
	}
	if err := r.indexer.BulkIndexDocuments(docs); err != nil {
		config.Logger.Error("Failed to bulk index applications", zap.Error(err))
		return err
	}
	return nil
}

// SearchFilter narrows an application search. District limits results to
// one office; empty means state-wide.
type SearchFilter struct {
	Query    string
	Status   models.ApplicationStatus
	Kind     models.ApplicationKind
	District string
	Page     int
	PageSize int
}

func termOn(field, value string) *query.TermQuery {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

// textQuery ranks exact identifiers above phrase matches above fuzzy matches.
func textQuery(raw string) query.Query {
	text := strings.TrimSpace(raw)
	if text == "" {
		return bleve.NewMatchAllQuery()
	}

	var clauses []query.Query

	number := termOn("application_number", strings.ToUpper(text))
	number.SetBoost(8.0)
	mobile := termOn("owner_mobile", text)
	mobile.SetBoost(6.0)
	clauses = append(clauses, number, mobile)

	for _, field := range []string{"owner_name", "property_name"} {
		phrase := bleve.NewMatchPhraseQuery(text)
		phrase.SetField(field)
		phrase.SetBoost(5.0)
		clauses = append(clauses, phrase)
	}

	for _, field := range []string{"owner_name", "property_name", "district", "tehsil", "address_line"} {
		match := bleve.NewMatchQuery(text)
		match.SetField(field)
		match.SetFuzziness(1)
		clauses = append(clauses, match)
	}
	return bleve.NewDisjunctionQuery(clauses...)
}

func (r *BleveRepository) SearchApplications(filter SearchFilter) (*bleveModels.SearchResponse, error) {
	conjuncts := []query.Query{textQuery(filter.Query)}
	if filter.Status != "" {
		conjuncts = append(conjuncts, termOn("status", string(filter.Status)))
	}
	if filter.Kind != "" {
		conjuncts = append(conjuncts, termOn("application_kind", string(filter.Kind)))
	}
	if key := districtKey(filter.District); key != "" {
		conjuncts = append(conjuncts, termOn("district_key", key))
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	result, err := r.indexer.SearchIndex(bleve.NewConjunctionQuery(conjuncts...), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	response := &bleveModels.SearchResponse{Total: result.Total, Hits: make([]bleveModels.SearchHit, 0, len(result.Hits))}
	for _, hit := range result.Hits {
		response.Hits = append(response.Hits, bleveModels.SearchHit{ID: hit.ID, Score: hit.Score, Fields: hit.Fields})
	}
	return response, nil
}
