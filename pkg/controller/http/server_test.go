package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/everecall/pkg/controller/http"
	"github.com/secmon-lab/everecall/pkg/repository/memory"
	"github.com/secmon-lab/everecall/pkg/usecase"
)

// stubEmbedder maps known texts to fixed vectors so similarity outcomes
// are controlled from the test.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func newTestServer(embedder *stubEmbedder) *httpctrl.Server {
	repo := memory.New()
	uc := usecase.New(repo, embedder, nil)
	return httpctrl.New(uc)
}

func doJSON(t *testing.T, srv *httpctrl.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		gt.NoError(t, json.NewEncoder(&buf).Encode(body)).Required()
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubEmbedder{})

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Body.String()).Contains(`"ok"`)
}

func TestKnowledgeEndpoints(t *testing.T) {
	srv := newTestServer(&stubEmbedder{})

	t.Run("ingest and fetch", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/knowledge", map[string]any{
			"content": "the capital of France is Paris",
			"source":  "geography",
			"tags":    []string{"fact"},
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		var created struct {
			ID      string `json:"id"`
			Content string `json:"content"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created)).Required()
		gt.Value(t, created.ID).NotEqual("")

		rec = doJSON(t, srv, http.MethodGet, "/api/knowledge/"+created.ID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.String(t, rec.Body.String()).Contains("capital of France")

		rec = doJSON(t, srv, http.MethodGet, "/api/knowledge/", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var listed struct {
			Total int `json:"total"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed)).Required()
		gt.Number(t, listed.Total).Equal(1)

		rec = doJSON(t, srv, http.MethodDelete, "/api/knowledge/"+created.ID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusNoContent)

		rec = doJSON(t, srv, http.MethodGet, "/api/knowledge/"+created.ID, nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("empty content rejected", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/knowledge", map[string]any{
			"content": "",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/knowledge", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestAugmentEndpoint(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"the sky is blue":    {1, 0, 0},
		"grass is green":     {0, 1, 0},
		"what color is sky?": {0.9, 0.1, 0},
	}}
	srv := newTestServer(embedder)

	rec := doJSON(t, srv, http.MethodPost, "/api/knowledge", map[string]any{"content": "the sky is blue"})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	rec = doJSON(t, srv, http.MethodPost, "/api/knowledge", map[string]any{"content": "grass is green"})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	t.Run("returns augmented prompt with relevant record first", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/augment", map[string]any{
			"base_prompt": "You are a helpful assistant.",
			"query":       "what color is sky?",
			"top_k":       1,
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var resp struct {
			Prompt  string `json:"prompt"`
			Results []struct {
				Content    string  `json:"content"`
				Similarity float64 `json:"similarity"`
			} `json:"results"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()

		gt.Array(t, resp.Results).Length(1)
		gt.Value(t, resp.Results[0].Content).Equal("the sky is blue")
		gt.String(t, resp.Prompt).Contains("You are a helpful assistant.")
		gt.String(t, resp.Prompt).Contains("- the sky is blue")
	})

	t.Run("empty query rejected", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/augment", map[string]any{
			"base_prompt": "base",
			"query":       "",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestEntityEndpoints(t *testing.T) {
	srv := newTestServer(&stubEmbedder{})

	rec := doJSON(t, srv, http.MethodPost, "/api/entities", map[string]any{
		"name": "alice",
		"type": "person",
		"data": map[string]string{"role": "admin"},
	})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)

	var alice struct {
		ID string `json:"id"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alice)).Required()

	rec = doJSON(t, srv, http.MethodPost, "/api/entities", map[string]any{"name": "bob"})
	gt.Number(t, rec.Code).Equal(http.StatusCreated)
	var bob struct {
		ID string `json:"id"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bob)).Required()

	t.Run("duplicate name rejected", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/entities", map[string]any{"name": "alice"})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("lookup by name", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/entities/?name=alice", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.String(t, rec.Body.String()).Contains(alice.ID)
	})

	t.Run("update entity", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPut, "/api/entities/"+alice.ID, map[string]any{
			"data": map[string]string{"role": "viewer"},
		})
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.String(t, rec.Body.String()).Contains("viewer")
	})

	t.Run("relations require existing endpoints", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/relations", map[string]any{
			"source_entity_id": alice.ID,
			"target_entity_id": bob.ID,
			"type":             "knows",
		})
		gt.Number(t, rec.Code).Equal(http.StatusCreated)

		rec = doJSON(t, srv, http.MethodPost, "/api/relations", map[string]any{
			"source_entity_id": alice.ID,
			"target_entity_id": "no-such-entity",
			"type":             "knows",
		})
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)

		rec = doJSON(t, srv, http.MethodGet, "/api/entities/"+alice.ID+"/relations", nil)
		gt.Number(t, rec.Code).Equal(http.StatusOK)
		var relations struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &relations)).Required()
		gt.Array(t, relations.Items).Length(1)
	})

	t.Run("unknown entity returns 404", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/entities/missing-id", nil)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}
