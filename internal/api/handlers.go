package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"partspricing/internal/bootstrap/logging"
	domain "partspricing/internal/domain/pricing"
	"partspricing/internal/ports"
	"partspricing/internal/usecase/pricing"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.appName,
	})
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	partID, ok := partIDFromPath(w, r)
	if !ok {
		return
	}

	input := pricing.PricesInput{
		PartID:       partID,
		InStockOnly:  queryBool(r, "in_stock_only"),
		ForceRefresh: queryBool(r, "force_refresh"),
	}
	if hours := queryInt(r, "max_age_hours"); hours > 0 {
		input.MaxAge = time.Duration(hours) * time.Hour
	}

	summary, err := s.service.GetPrices(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBestPrice(w http.ResponseWriter, r *http.Request) {
	partID, ok := partIDFromPath(w, r)
	if !ok {
		return
	}

	best, err := s.service.BestPrice(r.Context(), partID, queryBool(r, "in_stock_only"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

func (s *Server) handleAveragePrice(w http.ResponseWriter, r *http.Request) {
	partID, ok := partIDFromPath(w, r)
	if !ok {
		return
	}

	average, err := s.service.AveragePrice(r.Context(), partID, queryBool(r, "in_stock_only"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, average)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	partID, err := strconv.ParseUint(strings.TrimSpace(r.URL.Query().Get("part_id")), 10, 64)
	if err != nil || partID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "part_id must be a positive integer"})
		return
	}

	sources := splitCSV(r.URL.Query().Get("sources"))
	result, err := s.service.Refresh(r.Context(), pricing.RefreshInput{PartID: partID, Sources: sources})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "q is required"})
		return
	}

	result, err := s.service.Search(r.Context(), pricing.SearchInput{
		Query:   query,
		Limit:   queryInt(r, "limit"),
		Sources: splitCSV(r.URL.Query().Get("sources")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearchByOEM(w http.ResponseWriter, r *http.Request) {
	oem := strings.TrimSpace(r.URL.Query().Get("oem"))
	if oem == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "oem is required"})
		return
	}

	result, err := s.service.SearchByOEM(r.Context(),
		oem,
		queryInt(r, "limit"),
		splitCSV(r.URL.Query().Get("sources")),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func partIDFromPath(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	partID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || partID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid part id"})
		return 0, false
	}
	return partID, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrPartNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "part not found"})
	case errors.Is(err, domain.ErrNoPrices):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no fresh prices for this part"})
	case errors.Is(err, pricing.ErrNoSources):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no usable sources requested"})
	default:
		logging.Error(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func queryBool(r *http.Request, name string) bool {
	value := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name)))
	return value == "true" || value == "1" || value == "yes"
}

func queryInt(r *http.Request, name string) int {
	value, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil {
		return 0
	}
	return value
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
