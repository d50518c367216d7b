package search

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/config"
	"example.com/clinichub/services/appointment/internal/models"
)

// ElasticClient provides the document read store on Elasticsearch.
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client.
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// Index writes a read-model document keyed by aggregate id.
func (c *ElasticClient) Index(ctx context.Context, index, documentID string, doc interface{}) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal document")
	}

	indexName := config.FormatIndex(c.config, index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: documentID,
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Errorf("Elasticsearch index error: %s", res.String())
	}

	log.Debug().Str("index", indexName).Str("document_id", documentID).Msg("Document indexed")
	return nil
}

// GetAppointmentSummary fetches one appointment document by aggregate id.
// A missing document returns (nil, nil) so callers can continue their
// fallback chain.
func (c *ElasticClient) GetAppointmentSummary(ctx context.Context, appointmentID string) (*models.AppointmentSummary, error) {
	indexName := config.FormatIndex(c.config, "appointments")
	req := esapi.GetRequest{
		Index:      indexName,
		DocumentID: appointmentID,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch get request")
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, errors.Errorf("Elasticsearch get error: %s", res.String())
	}

	var result struct {
		Source models.AppointmentSummary `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to decode Elasticsearch get response")
	}

	return &result.Source, nil
}

// SearchAppointments runs a query against the appointments index and
// returns the matching documents.
func (c *ElasticClient) SearchAppointments(ctx context.Context, query map[string]interface{}) ([]models.AppointmentSummary, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, "appointments")
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.Errorf("Elasticsearch search error: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source models.AppointmentSummary `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	summaries := make([]models.AppointmentSummary, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		summaries = append(summaries, hit.Source)
	}

	return summaries, nil
}
