package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/everecall/pkg/domain/model"
	"github.com/secmon-lab/everecall/pkg/repository/firestore"
	"github.com/secmon-lab/everecall/pkg/repository/memory"
	"github.com/secmon-lab/everecall/pkg/usecase"
	"github.com/secmon-lab/everecall/pkg/utils/errutil"
	"github.com/secmon-lab/everecall/pkg/utils/safe"
)

func respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	safe.Write(r.Context(), w, data)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return goerr.Wrap(err, "invalid request body")
	}
	return nil
}

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, memory.ErrNotFound), errors.Is(err, firestore.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type searchResultResponse struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Similarity float64           `json:"similarity"`
	EntityID   string            `json:"entity_id,omitempty"`
	Source     string            `json:"source,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func toSearchResultResponses(results []*model.SearchResult) []searchResultResponse {
	resp := make([]searchResultResponse, len(results))
	for i, r := range results {
		resp[i] = searchResultResponse{
			ID:         string(r.Knowledge.ID),
			Content:    r.Knowledge.Content,
			Similarity: r.Similarity,
			EntityID:   string(r.Knowledge.EntityID),
			Source:     r.Knowledge.Source,
			Tags:       r.Knowledge.Tags,
			Metadata:   r.Knowledge.Metadata,
		}
	}
	return resp
}

func augmentHandler(uc *usecase.RetrievalUseCase) http.HandlerFunc {
	type request struct {
		BasePrompt     string `json:"base_prompt"`
		Query          string `json:"query"`
		TopK           int    `json:"top_k,omitempty"`
		ExpansionCount int    `json:"expansion_count,omitempty"`
		EntityID       string `json:"entity_id,omitempty"`
	}
	type response struct {
		Prompt     string                 `json:"prompt"`
		Results    []searchResultResponse `json:"results"`
		Diagnostic string                 `json:"diagnostic,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		aug, err := uc.AugmentSystemPrompt(r.Context(), req.BasePrompt, req.Query, usecase.RetrievalOptions{
			TopK:           req.TopK,
			ExpansionCount: req.ExpansionCount,
			EntityID:       model.EntityID(req.EntityID),
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		respondJSON(w, r, http.StatusOK, response{
			Prompt:     aug.Prompt,
			Results:    toSearchResultResponses(aug.Results),
			Diagnostic: aug.Diagnostic,
		})
	}
}

type knowledgeResponse struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	EntityID  string            `json:"entity_id,omitempty"`
	Source    string            `json:"source,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
}

func toKnowledgeResponse(k *model.Knowledge) knowledgeResponse {
	return knowledgeResponse{
		ID:        string(k.ID),
		Content:   k.Content,
		EntityID:  string(k.EntityID),
		Source:    k.Source,
		Tags:      k.Tags,
		Metadata:  k.Metadata,
		CreatedAt: k.CreatedAt.Format(time.RFC3339),
	}
}

func ingestKnowledgeHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	type request struct {
		Content  string            `json:"content"`
		EntityID string            `json:"entity_id,omitempty"`
		Source   string            `json:"source,omitempty"`
		Tags     []string          `json:"tags,omitempty"`
		Metadata map[string]string `json:"metadata,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		created, err := uc.Ingest(r.Context(), usecase.IngestInput{
			Content:  req.Content,
			EntityID: model.EntityID(req.EntityID),
			Source:   req.Source,
			Tags:     req.Tags,
			Metadata: req.Metadata,
		})
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		respondJSON(w, r, http.StatusCreated, toKnowledgeResponse(created))
	}
}

func listKnowledgeHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	type response struct {
		Items []knowledgeResponse `json:"items"`
		Total int                 `json:"total"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		items, total, err := uc.List(r.Context(), limit, offset)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := response{
			Items: make([]knowledgeResponse, len(items)),
			Total: total,
		}
		for i, k := range items {
			resp.Items[i] = toKnowledgeResponse(k)
		}

		respondJSON(w, r, http.StatusOK, resp)
	}
}

func getKnowledgeHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.KnowledgeID(chi.URLParam(r, "id"))

		k, err := uc.Get(r.Context(), id)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, errorStatus(err))
			return
		}

		respondJSON(w, r, http.StatusOK, toKnowledgeResponse(k))
	}
}

func deleteKnowledgeHandler(uc *usecase.KnowledgeUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.KnowledgeID(chi.URLParam(r, "id"))

		if err := uc.Delete(r.Context(), id); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, errorStatus(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type entityResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      string            `json:"type,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func toEntityResponse(e *model.Entity) entityResponse {
	return entityResponse{
		ID:        string(e.ID),
		Name:      e.Name,
		Type:      e.Type,
		Data:      e.Data,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
}

func createEntityHandler(uc *usecase.EntityUseCase) http.HandlerFunc {
	type request struct {
		Name string            `json:"name"`
		Type string            `json:"type,omitempty"`
		Data map[string]string `json:"data,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		created, err := uc.CreateEntity(r.Context(), req.Name, req.Type, req.Data)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		respondJSON(w, r, http.StatusCreated, toEntityResponse(created))
	}
}

func listEntitiesHandler(uc *usecase.EntityUseCase) http.HandlerFunc {
	type response struct {
		Items []entityResponse `json:"items"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// Support lookup by name for uniqueness checks from clients
		if name := r.URL.Query().Get("name"); name != "" {
			e, err := uc.GetEntityByName(r.Context(), name)
			if err != nil {
				errutil.HandleHTTP(r.Context(), w, err, errorStatus(err))
				return
			}
			respondJSON(w, r, http.StatusOK, response{Items: []entityResponse{toEntityResponse(e)}})
			return
		}

		entities, err := uc.ListEntities(r.Context())
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := response{Items: make([]entityResponse, len(entities))}
		for i, e := range entities {
			resp.Items[i] = toEntityResponse(e)
		}

		respondJSON(w, r, http.StatusOK, resp)
	}
}

func getEntityHandler(uc *usecase.EntityUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.EntityID(chi.URLParam(r, "id"))

		e, err := uc.GetEntity(r.Context(), id)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, errorStatus(err))
			return
		}

		respondJSON(w, r, http.StatusOK, toEntityResponse(e))
	}
}

func updateEntityHandler(uc *usecase.EntityUseCase) http.HandlerFunc {
	type request struct {
		Type string            `json:"type,omitempty"`
		Data map[string]string `json:"data,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := model.EntityID(chi.URLParam(r, "id"))

		var req request
		if err := decodeJSON(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		updated, err := uc.UpdateEntity(r.Context(), id, req.Type, req.Data)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, errorStatus(err))
			return
		}

		respondJSON(w, r, http.StatusOK, toEntityResponse(updated))
	}
}

func deleteEntityHandler(uc *usecase.EntityUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.EntityID(chi.URLParam(r, "id"))

		if err := uc.DeleteEntity(r.Context(), id); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, errorStatus(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type relationResponse struct {
	ID             string `json:"id"`
	SourceEntityID string `json:"source_entity_id"`
	TargetEntityID string `json:"target_entity_id"`
	Type           string `json:"type,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toRelationResponse(rel *model.Relation) relationResponse {
	return relationResponse{
		ID:             string(rel.ID),
		SourceEntityID: string(rel.SourceEntityID),
		TargetEntityID: string(rel.TargetEntityID),
		Type:           rel.Type,
		CreatedAt:      rel.CreatedAt.Format(time.RFC3339),
	}
}

func createRelationHandler(uc *usecase.EntityUseCase) http.HandlerFunc {
	type request struct {
		SourceEntityID string `json:"source_entity_id"`
		TargetEntityID string `json:"target_entity_id"`
		Type           string `json:"type,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(r, &req); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		created, err := uc.CreateRelation(r.Context(),
			model.EntityID(req.SourceEntityID),
			model.EntityID(req.TargetEntityID),
			req.Type,
		)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
			return
		}

		respondJSON(w, r, http.StatusCreated, toRelationResponse(created))
	}
}

func listRelationsHandler(uc *usecase.EntityUseCase) http.HandlerFunc {
	type response struct {
		Items []relationResponse `json:"items"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := model.EntityID(chi.URLParam(r, "id"))

		relations, err := uc.ListRelationsByEntity(r.Context(), id)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := response{Items: make([]relationResponse, len(relations))}
		for i, rel := range relations {
			resp.Items[i] = toRelationResponse(rel)
		}

		respondJSON(w, r, http.StatusOK, resp)
	}
}

func deleteRelationHandler(uc *usecase.EntityUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.RelationID(chi.URLParam(r, "id"))

		if err := uc.DeleteRelation(r.Context(), id); err != nil {
			errutil.HandleHTTP(r.Context(), w, err, errorStatus(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
