package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

// Client is a thin synchronous wrapper over the Qdrant HTTP API. It does
// not retry; non-2xx responses surface as errors carrying status and body.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	vectorSize int
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
}

func New(baseURL, apiKey, collection string, vectorSize int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		vectorSize: vectorSize,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// EnsureCollection creates the collection with cosine distance and the
// configured dimensionality if it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context) error {
	c.ensureMu.Lock()
	if c.ensuredCollection {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	body := map[string]any{
		"vectors": map[string]any{
			"size":     c.vectorSize,
			"distance": "Cosine",
		},
	}

	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", c.collection), body)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if it already exists.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return statusError("ensure collection", resp)
	}

	c.ensureMu.Lock()
	c.ensuredCollection = true
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) Upsert(ctx context.Context, point domain.VectorPoint) error {
	return c.UpsertBatch(ctx, []domain.VectorPoint{point})
}

func (c *Client) UpsertBatch(ctx context.Context, points []domain.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := c.EnsureCollection(ctx); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload,omitempty"`
	}
	out := make([]point, 0, len(points))
	for _, p := range points {
		out = append(out, point{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}

	resp, err := c.do(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/points?wait=true", c.collection),
		map[string]any{"points": out})
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("upsert", resp)
	}
	return nil
}

func (c *Client) DeleteByID(ctx context.Context, id string) error {
	if err := c.EnsureCollection(ctx); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/delete?wait=true", c.collection),
		map[string]any{"points": []string{id}})
	if err != nil {
		return fmt.Errorf("qdrant delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError("delete", resp)
	}
	return nil
}

func (c *Client) Search(
	ctx context.Context,
	vector []float32,
	limit int,
	filter *domain.VectorFilter,
) ([]domain.VectorHit, error) {
	if err := c.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if clauses := buildFilter(filter); clauses != nil {
		reqBody["filter"] = clauses
	}

	resp, err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/collections/%s/points/search", c.collection), reqBody)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, statusError("search", resp)
	}

	var searchResp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.VectorHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.VectorHit{
			ID:      fmt.Sprintf("%v", r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return out, nil
}

// EnsurePayloadIndex makes a payload field filterable as a keyword.
func (c *Client) EnsurePayloadIndex(ctx context.Context, field string) error {
	if err := c.EnsureCollection(ctx); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut,
		fmt.Sprintf("/collections/%s/index?wait=true", c.collection),
		map[string]any{"field_name": field, "field_schema": "keyword"})
	if err != nil {
		return fmt.Errorf("qdrant payload index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return statusError("payload index", resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	return c.httpClient.Do(req)
}

func buildFilter(filter *domain.VectorFilter) map[string]any {
	if filter == nil {
		return nil
	}
	must := make([]map[string]any, 0, len(filter.Match)+len(filter.Range))
	for _, m := range filter.Match {
		must = append(must, map[string]any{
			"key":   m.Key,
			"match": map[string]any{"value": m.Value},
		})
	}
	for _, r := range filter.Range {
		rng := map[string]any{}
		if r.GTE != nil {
			rng["gte"] = *r.GTE
		}
		if r.LTE != nil {
			rng["lte"] = *r.LTE
		}
		must = append(must, map[string]any{"key": r.Key, "range": rng})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
}

// GetStringPayload reads a payload field as a string, formatting non-string
// values instead of failing.
func GetStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
