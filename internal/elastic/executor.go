// Package elastic runs compiled variant predicates on an Elasticsearch
// cluster and reads index field types from the cluster mappings.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/populationgenomics/seqr/internal/config"
	"github.com/populationgenomics/seqr/internal/domain"
	"github.com/populationgenomics/seqr/internal/expr"
)

// idField is the document field holding the variant id.
const idField = "variantId"

// NewClient creates a cluster client from configuration.
func NewClient(cfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	if !cfg.Enabled() {
		return nil, domain.ErrConfiguration("ELASTICSEARCH_URL is not set")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.URLs,
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return client, nil
}

// Executor runs queries against one cluster.
type Executor struct {
	client *elasticsearch.Client
	logger *slog.Logger
}

// NewExecutor creates an executor on client.
func NewExecutor(client *elasticsearch.Client, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{client: client, logger: logger}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Execute searches index with the compiled predicate and returns the ids of
// the matching variants in sort order. A nil predicate matches every
// document.
func (x *Executor) Execute(ctx context.Context, index string, e expr.Expr, sortBy []string, size int) ([]string, error) {
	body, err := searchBody(e, sortBy, size)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(index),
		x.client.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close() //nolint:errcheck
	if err := responseError(res, index); err != nil {
		return nil, err
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]string, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		if id, ok := h.Source[idField].(string); ok {
			ids = append(ids, id)
			continue
		}
		ids = append(ids, h.ID)
	}
	x.logger.Info("elasticsearch query complete", "index", index, "total", out.Hits.Total.Value, "fetched", len(ids))
	return ids, nil
}

func searchBody(e expr.Expr, sortBy []string, size int) (map[string]interface{}, error) {
	if sortBy == nil {
		sortBy = []string{"xpos"}
	}
	source := []string{idField}
	if e != nil {
		return expr.OutputElasticsearch(e, sortBy, 0, size, source)
	}
	return map[string]interface{}{
		"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":    sortBy,
		"from":    0,
		"size":    size,
		"_source": source,
	}, nil
}

// FieldTypes returns the flattened field types of index. Object fields are
// listed with their sub-fields joined by dots. When index is an alias the
// mappings of every backing index are merged.
func (x *Executor) FieldTypes(ctx context.Context, index string) (map[string]string, error) {
	res, err := x.client.Indices.GetMapping(
		x.client.Indices.GetMapping.WithContext(ctx),
		x.client.Indices.GetMapping.WithIndex(index),
	)
	if err != nil {
		return nil, fmt.Errorf("get mapping of %s: %w", index, err)
	}
	defer res.Body.Close() //nolint:errcheck
	if err := responseError(res, index); err != nil {
		return nil, err
	}

	var mappings map[string]struct {
		Mappings struct {
			Properties map[string]property `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&mappings); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	names := make([]string, 0, len(mappings))
	for name := range mappings {
		names = append(names, name)
	}
	sort.Strings(names)

	types := make(map[string]string)
	for _, name := range names {
		flatten(types, "", mappings[name].Mappings.Properties)
	}
	x.logger.Debug("read index mapping", "index", index, "indices", len(names), "fields", len(types))
	return types, nil
}

type property struct {
	Type       string              `json:"type"`
	Properties map[string]property `json:"properties"`
}

func flatten(out map[string]string, prefix string, props map[string]property) {
	for name, p := range props {
		field := prefix + name
		switch {
		case p.Type != "":
			out[field] = p.Type
		case len(p.Properties) > 0:
			out[field] = "object"
		}
		if len(p.Properties) > 0 {
			flatten(out, field+".", p.Properties)
		}
	}
}

// responseError maps an error response to a domain error.
func responseError(res *esapi.Response, index string) error {
	if !res.IsError() {
		return nil
	}
	raw, _ := io.ReadAll(res.Body)
	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	reason := string(raw)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Reason != "" {
		reason = body.Error.Type + ": " + body.Error.Reason
	}
	switch res.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound("Index %s not found", index)
	case http.StatusBadRequest:
		return domain.ErrValidation("Invalid query for %s: %s", index, reason)
	}
	return fmt.Errorf("elasticsearch %s: %s", res.Status(), reason)
}
