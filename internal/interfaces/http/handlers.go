package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/perfstore/internal/bucket"
)

// MaxRangeDays bounds /report/{category}/range
const MaxRangeDays = 366

// ReportDay serves GET /report/{category}?date=YYYY-MM-DD
func (s *Server) ReportDay(w http.ResponseWriter, r *http.Request) {
	category, ok := s.category(w, r)
	if !ok {
		return
	}

	day := bucket.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := bucket.ParseDay(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	rep, err := s.reporter.Day(r.Context(), category, day)
	if err != nil {
		s.writeReportError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, DayResponse{Generated: time.Now().UTC(), Report: rep})
}

// ReportRange serves GET /report/{category}/range?days=N&end=YYYY-MM-DD
func (s *Server) ReportRange(w http.ResponseWriter, r *http.Request) {
	category, ok := s.category(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	days := s.config.DefaultDays
	if raw := query.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxRangeDays {
			s.writeError(w, r, http.StatusBadRequest, "invalid_days",
				"days must be an integer between 1 and "+strconv.Itoa(MaxRangeDays))
			return
		}
		days = n
	}

	end := bucket.Now().UTC()
	if raw := query.Get("end"); raw != "" {
		parsed, err := bucket.ParseDay(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "invalid_date", "end must be YYYY-MM-DD")
			return
		}
		end = parsed
	}

	reports, err := s.reporter.Range(r.Context(), category, end, days)
	if err != nil {
		s.writeReportError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, RangeResponse{
		Generated: time.Now().UTC(),
		Category:  category,
		Days:      days,
		Reports:   reports,
	})
}

// NotFound handles 404 responses
func (s *Server) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}

// MethodNotAllowed handles requests whose path matched under another method
func (s *Server) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed",
		"Method "+r.Method+" is not allowed on this endpoint")
}

// category decodes and validates the {category} path variable
func (s *Server) category(w http.ResponseWriter, r *http.Request) (string, bool) {
	category, err := url.PathUnescape(mux.Vars(r)["category"])
	if err == nil {
		err = bucket.ValidateCategory(category)
	}
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_category", err.Error())
		return "", false
	}
	return category, true
}

func (s *Server) writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("Report failed")

	switch {
	case errors.Is(err, bucket.ErrInvalidCategory):
		s.writeError(w, r, http.StatusBadRequest, "invalid_category", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, r, http.StatusGatewayTimeout, "timeout", "Report timed out")
	default:
		s.writeError(w, r, http.StatusBadGateway, "store_unavailable", "Store query failed")
	}
}

// writeJSON writes JSON response with proper error handling
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes standardized error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestIDFrom(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}
