package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dd0wney/cluso-settingstext/pkg/logging"
	"github.com/dd0wney/cluso-settingstext/pkg/report"
	"github.com/dd0wney/cluso-settingstext/pkg/service"
	"github.com/dd0wney/cluso-settingstext/pkg/validation"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req validation.ReportRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	res, err := s.svc.Report(r.Context(), &req)
	if err != nil {
		s.respondServiceError(w, err, "report")
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req validation.ResolveRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	res, err := s.svc.Resolve(r.Context(), &req)
	if err != nil {
		s.respondServiceError(w, err, "resolve")
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	var req SelectAllRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Workflow) == 0 {
		s.respondError(w, http.StatusBadRequest, "workflow is required")
		return
	}

	entries, err := s.svc.SelectAll(req.Workflow, req.Exclude)
	if err != nil {
		s.respondServiceError(w, err, "select-all")
		return
	}
	data, err := report.MarshalSelection(entries)
	if err != nil {
		s.respondServiceError(w, err, "select-all")
		return
	}
	s.respondJSON(w, http.StatusOK, SelectAllResponse{
		Entries:   entries,
		Selection: string(data),
		Count:     len(entries),
	})
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, ModesResponse{
		Modes:   report.Modes,
		Default: report.ModeGrouped,
	})
}

// respondServiceError maps service errors to status codes. Bad requests
// carry their message; anything else is logged and reported generically.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, operation string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, service.ErrBadRequest):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error("request failed", logging.String("operation", operation), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, operation+" failed")
	}
}
