package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/akoval/checkwatch/internal/history"
	"github.com/akoval/checkwatch/internal/stats"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		corsError(w, "Not found", http.StatusNotFound)
		return
	}
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the stylesheet
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write(appCSS)
}

// handleStaticJS serves the dashboard script
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleRecords returns the full sales history, newest first. A store read
// failure degrades to an empty list so the page still renders.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.LoadAll()
	if err != nil {
		slog.Error("Error loading records", "error", err)
		records = nil
	}

	// Newest first for display; the store keeps append order.
	reversed := make([]history.Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		reversed = append(reversed, records[i])
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reversed); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleTotals returns aggregate sales figures, optionally limited to records
// at or after the ?since timestamp
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	var records []history.Record
	var err error

	if since := r.URL.Query().Get("since"); since != "" {
		ts, parseErr := time.Parse(time.RFC3339, since)
		if parseErr != nil {
			corsError(w, "Invalid since parameter, expected RFC 3339 timestamp", http.StatusBadRequest)
			return
		}
		records, err = s.store.LoadSince(ts)
	} else {
		records, err = s.store.LoadAll()
	}
	if err != nil {
		slog.Error("Error loading records", "error", err)
		records = nil
	}

	summary := stats.Totals(stats.Flatten(records))

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleTopProducts returns product rankings. ?by selects the sort key
// (quantity or revenue) and ?limit caps the list size.
func (s *Server) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	key := stats.ByQuantity
	switch by := r.URL.Query().Get("by"); by {
	case "", "quantity":
	case "revenue":
		key = stats.ByRevenue
	default:
		corsError(w, "Invalid by parameter, expected quantity or revenue", http.StatusBadRequest)
		return
	}

	limit := stats.DefaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			corsError(w, "Invalid limit parameter, expected a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.store.LoadAll()
	if err != nil {
		slog.Error("Error loading records", "error", err)
		records = nil
	}

	products := stats.TopProducts(stats.Flatten(records), key, limit)

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(products); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleInsight returns AI commentary on the current top products
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	if s.commenter == nil {
		corsError(w, "Commentary is not configured", http.StatusServiceUnavailable)
		return
	}

	records, err := s.store.LoadAll()
	if err != nil {
		slog.Error("Error loading records", "error", err)
		records = nil
	}

	products := stats.TopProducts(stats.Flatten(records), stats.ByQuantity, stats.DefaultTopLimit)

	commentary, err := s.commenter.Comment(r.Context(), products)
	if err != nil {
		slog.Error("Error generating commentary", "error", err)
		corsError(w, "Commentary unavailable", http.StatusBadGateway)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"commentary": commentary}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleHealth returns a simple health check response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
