package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/musdechocolate/hrai/internal/metadata"
	"github.com/musdechocolate/hrai/internal/search"
	"github.com/musdechocolate/hrai/internal/storage"
)

const defaultListLimit = 100

// documentPayload is the JSON shape of one stored resume's payload.
type documentPayload struct {
	Text     string          `json:"text"`
	Filename string          `json:"filename"`
	Filepath string          `json:"filepath"`
	Metadata metadata.Record `json:"metadata"`
}

type documentItem struct {
	ID      string          `json:"id"`
	Payload documentPayload `json:"payload"`
}

type searchHit struct {
	ID      string          `json:"id"`
	Score   float64         `json:"score"`
	Payload documentPayload `json:"payload"`
}

type documentsResponse struct {
	Status         string         `json:"status"`
	Data           []documentItem `json:"data"`
	NextPageOffset *string        `json:"next_page_offset"`
}

type searchRequest struct {
	Query   string         `json:"query"`
	Limit   int            `json:"limit"`
	Filters map[string]any `json:"filters"`
}

type searchResponse struct {
	Status string      `json:"status"`
	Data   []searchHit `json:"data"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Qdrant    string `json:"qdrant"`
	Timestamp string `json:"timestamp"`
}

func payloadOf(r *storage.Resume) documentPayload {
	return documentPayload{
		Text:     r.Text,
		Filename: r.Filename,
		Filepath: r.Filepath,
		Metadata: r.Metadata,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

// handleHealth reports server and Qdrant health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.store.Health(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Qdrant = "disconnected"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "healthy"
	resp.Qdrant = "connected"
	writeJSON(w, http.StatusOK, resp)
}

// handleDocuments returns one page of stored resumes. The offset query
// parameter is the opaque cursor returned as next_page_offset by the
// previous page.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	offset := r.URL.Query().Get("offset")

	resumes, next, err := s.store.Scroll(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("document listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]documentItem, 0, len(resumes))
	for _, resume := range resumes {
		items = append(items, documentItem{
			ID:      resume.ID,
			Payload: payloadOf(resume),
		})
	}

	resp := documentsResponse{Status: "success", Data: items}
	if next != "" {
		resp.NextPageOffset = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSearch answers a hybrid query: semantic similarity plus
// exact-match metadata filters.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	hits, err := s.engine.Query(r.Context(), req.Query, req.Filters, req.Limit)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, "Query text is required")
		case errors.Is(err, storage.ErrBadFilterValue):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("search failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	data := make([]searchHit, 0, len(hits))
	for _, h := range hits {
		data = append(data, searchHit{
			ID:      h.Resume.ID,
			Score:   h.Score,
			Payload: payloadOf(h.Resume),
		})
	}

	writeJSON(w, http.StatusOK, searchResponse{Status: "success", Data: data})
}
