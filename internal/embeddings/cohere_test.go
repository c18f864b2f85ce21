package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCohereEmbedderSendsInputType(t *testing.T) {
	var got cohereEmbedRequest
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		embeddings := make([][]float32, len(got.Texts))
		for i := range embeddings {
			embeddings[i] = []float32{0.1, 0.2}
		}
		json.NewEncoder(w).Encode(cohereEmbedResponse{Embeddings: embeddings})
	}))
	defer ts.Close()

	e := NewCohereEmbedder("test-key", ModelEmbedEnglishV3, ts.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"}, ModeQuery)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if got.InputType != "search_query" {
		t.Errorf("expected input_type search_query, got %q", got.InputType)
	}
	if got.Model != string(ModelEmbedEnglishV3) {
		t.Errorf("unexpected model: %q", got.Model)
	}
	if auth != "Bearer test-key" {
		t.Errorf("unexpected auth header: %q", auth)
	}

	if _, err := e.Embed(context.Background(), []string{"c"}, ModeDocument); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if got.InputType != "search_document" {
		t.Errorf("expected input_type search_document, got %q", got.InputType)
	}
}

func TestCohereEmbedderErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	e := NewCohereEmbedder("k", ModelEmbedEnglishV3, ts.URL)
	if _, err := e.Embed(context.Background(), []string{"a"}, ModeQuery); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestCohereEmbedderCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cohereEmbedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer ts.Close()

	e := NewCohereEmbedder("k", ModelEmbedEnglishV3, ts.URL)
	if _, err := e.Embed(context.Background(), []string{"a", "b"}, ModeQuery); err == nil {
		t.Fatal("expected error on embedding count mismatch")
	}
}

func TestCohereEmbedderEmptyInput(t *testing.T) {
	e := NewCohereEmbedder("k", ModelEmbedEnglishV3, "http://unused.invalid")
	vecs, err := e.Embed(context.Background(), nil, ModeQuery)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if vecs != nil {
		t.Errorf("expected nil for empty input, got %v", vecs)
	}
}
