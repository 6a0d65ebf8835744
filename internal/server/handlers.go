package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/maauso/sportsreel-api/internal/job"
)

const writeWait = 10 * time.Second

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service        *job.Service
	validator      *validator.Validate
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
	watchInterval  time.Duration
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithWatchInterval sets how often a websocket watcher re-reads the job.
func WithWatchInterval(d time.Duration) HandlerOption {
	return func(h *Handlers) {
		if d > 0 {
			h.watchInterval = d
		}
	}
}

// WithAllowedOrigins restricts which origins may open a watch socket.
func WithAllowedOrigins(origins []string) HandlerOption {
	return func(h *Handlers) {
		h.allowedOrigins = origins
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:        service,
		validator:      validator.New(),
		logger:         logger,
		allowedOrigins: []string{"*"},
		watchInterval:  time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateJob handles POST /jobs requests.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	applyEffects := true
	if req.ApplyEffects != nil {
		applyEffects = *req.ApplyEffects
	}

	// Submit detaches the run from the request, so the request context only
	// bounds persisting the PENDING job.
	created, err := h.service.Submit(r.Context(), job.SubmitInput{
		SubjectName:         req.SubjectName,
		Title:               req.Title,
		Description:         req.Description,
		AspectRatio:         req.AspectRatio,
		ApplyEffects:        applyEffects,
		UseContextualImages: req.UseContextualImages,
	})
	if err != nil {
		if errors.Is(err, job.ErrSubjectRequired) || errors.Is(err, job.ErrUnsupportedAspectRatio) {
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}
		h.logger.Error("failed to create job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	h.logger.Info("job created",
		slog.String("job_id", created.ID),
		slog.String("subject", created.SubjectName),
	)

	writeJSON(w, http.StatusAccepted, CreateJobResponse{
		ID:    created.ID,
		Stage: string(created.Stage),
	})
}

// ListJobs handles GET /jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := ListJobsResponse{Jobs: make([]JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, newJobResponse(j))
	}
	resp.Count = len(resp.Jobs)
	writeJSON(w, http.StatusOK, resp)
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	found, ok := h.lookup(w, r, jobID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newJobResponse(found))
}

// DeleteJob handles DELETE /jobs/{id} requests.
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	if err := h.service.DeleteJob(r.Context(), jobID); err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to delete job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete job", "JOB_DELETE_FAILED")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WatchJob handles GET /jobs/{id}/watch. It upgrades to a websocket and
// pushes a snapshot each time the job changes, closing once it is terminal.
func (h *Handlers) WatchJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	snap, ok := h.lookup(w, r, jobID)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	// The read loop only exists to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("watch client error",
						slog.String("job_id", jobID),
						slog.String("error", err.Error()),
					)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(h.watchInterval)
	defer ticker.Stop()

	var lastSent time.Time
	for {
		if !snap.UpdatedAt.Equal(lastSent) {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(newJobResponse(snap)); err != nil {
				h.logger.Debug("watch write failed",
					slog.String("job_id", jobID),
					slog.String("error", err.Error()),
				)
				return
			}
			lastSent = snap.UpdatedAt
		}
		if snap.Stage.IsTerminal() {
			closeSocket(conn, websocket.CloseNormalClosure, string(snap.Stage))
			return
		}

		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		snap, err = h.service.GetJob(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, job.ErrJobNotFound) {
				closeSocket(conn, websocket.CloseNormalClosure, "job deleted")
				return
			}
			h.logger.Error("watch refresh failed",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			closeSocket(conn, websocket.CloseInternalServerErr, "refresh failed")
			return
		}
	}
}

// lookup fetches a job and writes the error response when it cannot.
func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request, jobID string) (*job.Job, bool) {
	found, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return nil, false
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return nil, false
	}
	return found, true
}

func (h *Handlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, ao := range h.allowedOrigins {
		if ao == "*" || ao == origin {
			return true
		}
	}
	return false
}

func closeSocket(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
