package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

func TestUpsertEnsuresCollectionFirst(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Header.Get("api-key") != "secret" {
			t.Fatalf("missing api-key header")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret", "agent_intents", 768)
	err := client.Upsert(context.Background(), domain.VectorPoint{
		ID:      "p-1",
		Vector:  []float32{0.1, 0.2},
		Payload: map[string]any{"kind": "intent", "type": "FREE_TIME"},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("expected ensure + upsert, got %v", paths)
	}
	if paths[0] != "PUT /collections/agent_intents" {
		t.Fatalf("first call = %s", paths[0])
	}
	if !strings.HasPrefix(paths[1], "PUT /collections/agent_intents/points") {
		t.Fatalf("second call = %s", paths[1])
	}
}

func TestEnsureCollectionToleratesConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := New(server.URL, "", "agent_intents", 768)
	if err := client.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
}

func TestSearchSendsConjunctiveFilter(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/points/search") {
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode search body: %v", err)
			}
			_, _ = w.Write([]byte(`{"result":[{"id":"p-1","score":0.92,"payload":{"type":"FREE_TIME"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "agent_intents", 768)
	gte := 0.5
	hits, err := client.Search(context.Background(), []float32{0.1}, 3, &domain.VectorFilter{
		Match: []domain.FieldMatch{{Key: "kind", Value: "intent"}},
		Range: []domain.FieldRange{{Key: "weight", GTE: &gte}},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Score != 0.92 {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if GetStringPayload(hits[0].Payload, "type") != "FREE_TIME" {
		t.Fatalf("payload type missing")
	}

	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("filter missing from search body: %v", captured)
	}
	must, ok := filter["must"].([]any)
	if !ok || len(must) != 2 {
		t.Fatalf("expected two must clauses, got %v", filter)
	}
}

func TestSearchSurfacesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/points/search") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":{"error":"bad vector size"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "agent_intents", 768)
	_, err := client.Search(context.Background(), []float32{0.1}, 3, nil)
	if err == nil || !strings.Contains(err.Error(), "bad vector size") {
		t.Fatalf("expected status error with body, got %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	var deleted []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/points/delete") {
			var body struct {
				Points []string `json:"points"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			deleted = body.Points
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "agent_intents", 768)
	if err := client.DeleteByID(context.Background(), "p-9"); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "p-9" {
		t.Fatalf("deleted = %v", deleted)
	}
}
