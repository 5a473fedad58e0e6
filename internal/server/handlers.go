package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hirepipe/internal/api"
	"hirepipe/internal/logging"
	"hirepipe/internal/passlist"
	"hirepipe/internal/services"
	"hirepipe/internal/status"
	"hirepipe/internal/workflow"
)

// multipartOverhead covers form boundaries and the stage field on top of the file limit.
const multipartOverhead = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Store().Ping(r.Context()); err != nil {
		writeError(w, r, s.logger, services.Wrap(services.ErrPersistence, "server", "health", "database unavailable", err))
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.stages.Jobs(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleGetStages(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	summary, err := s.stages.Summary(r.Context(), jobID)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, summary)
}

func (s *Server) handleSetStages(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	var req api.SetStagesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	job, err := s.engine.SetTotalStages(r.Context(), jobID, req.TotalStages)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, api.FromJob(job))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeTooLarge(w, r)
			return
		}
		writeError(w, r, s.logger, services.Wrap(services.ErrValidation, "server", "upload", "expected multipart form with a file", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	stageValue := strings.TrimSpace(r.FormValue("stage"))
	if stageValue == "" {
		stageValue = strings.TrimSpace(r.URL.Query().Get("stage"))
	}
	stage, err := strconv.Atoi(stageValue)
	if err != nil {
		writeError(w, r, s.logger, services.Wrap(services.ErrValidation, "server", "upload", fmt.Sprintf("invalid stage %q", stageValue), nil))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, s.logger, services.Wrap(services.ErrValidation, "server", "upload", "file is required", nil))
		return
	}
	defer file.Close()
	if header.Size > s.maxBytes {
		s.writeTooLarge(w, r)
		return
	}

	set, skipped, err := s.parse(r, file, header)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	result, err := s.engine.Advance(r.Context(), jobID, stage, set)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, api.FromBatchResult(result, skipped))
}

func (s *Server) writeTooLarge(w http.ResponseWriter, r *http.Request) {
	resp := api.ErrorResponse{Error: fmt.Sprintf("upload exceeds %d bytes", s.maxBytes), Kind: "validation"}
	if id, ok := services.RequestIDFromContext(r.Context()); ok {
		resp.RequestID = id
	}
	writeJSON(w, s.logger, http.StatusRequestEntityTooLarge, resp)
}

// resultParser is implemented by parsers that also report skipped rows.
type resultParser interface {
	ParseResult(ctx context.Context, r io.Reader, filename string) (passlist.Result, error)
}

func (s *Server) parse(r *http.Request, file multipart.File, header *multipart.FileHeader) (passlist.Set, int, error) {
	if rp, ok := s.parser.(resultParser); ok {
		result, err := rp.ParseResult(r.Context(), file, header.Filename)
		if err != nil {
			return nil, 0, err
		}
		return result.Set, result.Skipped, nil
	}
	set, err := s.parser.Parse(r.Context(), file, header.Filename)
	return set, 0, err
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	apps, err := s.stages.Applications(r.Context(), jobID)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, api.ApplicationListResponse{Applications: apps})
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	app, err := s.stages.Describe(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, api.ApplicationResponse{Application: app})
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	var req api.UpdateApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	update := workflow.Update{Notes: req.Notes}
	if req.Status != nil {
		parsed, err := status.Parse(*req.Status)
		if err != nil {
			writeError(w, r, s.logger, services.Wrap(services.ErrValidation, "server", "update application", "", err))
			return
		}
		update.Status = &parsed
	}

	app, err := s.engine.SetStatus(r.Context(), id, update, actorFromRequest(r))
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, api.ApplicationResponse{Application: api.FromApplication(app)})
}

func (s *Server) handlePlacements(w http.ResponseWriter, r *http.Request) {
	year := time.Now().UTC().Year()
	if value := strings.TrimSpace(r.URL.Query().Get("year")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			writeError(w, r, s.logger, services.Wrap(services.ErrValidation, "server", "placements", fmt.Sprintf("invalid year %q", value), nil))
			return
		}
		year = parsed
	}
	report, err := s.stages.Placements(r.Context(), year)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, report)
}

func (s *Server) handleDrift(w http.ResponseWriter, r *http.Request) {
	drift, err := s.stages.Drift(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]any{"drift": drift})
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "server", "path", fmt.Sprintf("invalid id %q", raw), nil)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return services.Wrap(services.ErrValidation, "server", "decode", "invalid JSON body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := services.HTTPStatus(err)
	resp := api.ErrorResponse{Error: err.Error(), Kind: errorKind(err)}
	if id, ok := services.RequestIDFromContext(r.Context()); ok {
		resp.RequestID = id
	}
	if code >= http.StatusInternalServerError && logger != nil {
		logging.WithContext(r.Context(), logger).Error("api request failed", logging.Error(err))
	}
	writeJSON(w, logger, code, resp)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, services.ErrForbidden):
		return "forbidden"
	default:
		return services.Kind(err)
	}
}
