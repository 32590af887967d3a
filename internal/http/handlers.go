package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"futurefind-speech-service/internal/app"
	"futurefind-speech-service/internal/models"
	"futurefind-speech-service/internal/schema"
	"futurefind-speech-service/internal/service/capture"
	"futurefind-speech-service/internal/service/correction"
	"futurefind-speech-service/internal/service/feedback"
)

const maxBodyBytes = 1 << 20

var errFeedbackDisabled = errors.New("generative model is not configured")

type handlers struct {
	app       *app.Application
	hub       *Hub
	validator *schema.Validator
}

type processRequest struct {
	Text  string `json:"text"`
	Trace bool   `json:"trace"`
}

type processResponse struct {
	Raw    string                   `json:"raw"`
	Text   string                   `json:"text"`
	Stages []correction.StageOutput `json:"stages,omitempty"`
}

type resultsRequest struct {
	Results []capture.Result `json:"results"`
}

type evaluateRequest struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expectedAnswer"`
	// Answer defaults to the session transcript.
	Answer string `json:"answer"`
}

type evaluateResponse struct {
	feedback.Result
	Answer string `json:"answer"`
}

type questionsResponse struct {
	Questions []feedback.Question `json:"questions"`
}

func (h *handlers) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !h.decode(w, r, schema.ProcessRequest, &req) {
		return
	}

	resp := processResponse{Raw: req.Text}
	if req.Trace {
		resp.Stages = h.app.Processor.Trace(req.Text)
		resp.Text = resp.Stages[len(resp.Stages)-1].Text
	} else {
		resp.Text = h.app.Processor.Process(req.Text)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	s := h.app.Sessions.Create()
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Sessions.List())
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) startSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *capture.Session) error { return s.Start(r.Context()) })
}

func (h *handlers) stopSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *capture.Session) error { return s.Stop() })
}

func (h *handlers) resetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *capture.Session) error {
		s.Reset()
		return nil
	})
}

func (h *handlers) sessionResults(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req resultsRequest
	if !h.decode(w, r, schema.ResultsRequest, &req) {
		return
	}
	if err := s.HandleResults(r.Context(), req.Results); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *handlers) evaluateSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if h.app.Evaluator == nil {
		writeError(w, r, errFeedbackDisabled)
		return
	}
	var req evaluateRequest
	if !h.decode(w, r, schema.EvaluateRequest, &req) {
		return
	}

	answer := strings.TrimSpace(req.Answer)
	if answer == "" {
		answer = strings.TrimSpace(s.Transcript())
	}

	ctx, cancel := h.modelContext(r)
	defer cancel()

	res, err := h.app.Evaluator.Evaluate(ctx, feedback.Request{
		Question:       req.Question,
		ExpectedAnswer: req.ExpectedAnswer,
		Answer:         answer,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	ev := models.AnswerFeedback{
		EventType: models.EventAnswerFeedback,
		SessionID: s.ID(),
		Timestamp: time.Now().UnixMilli(),
		Question:  req.Question,
		Answer:    answer,
		Rating:    res.Rating,
		Feedback:  res.Feedback,
	}
	if err := h.app.Publisher.PublishFeedback(ctx, s.ID(), ev); err != nil {
		log.Error().Err(err).Str("sessionId", s.ID()).Msg("Failed to publish feedback")
	}
	h.hub.Publish(s.ID(), ev)

	writeJSON(w, http.StatusOK, evaluateResponse{Result: res, Answer: answer})
}

func (h *handlers) generateQuestions(w http.ResponseWriter, r *http.Request) {
	if h.app.Questions == nil {
		writeError(w, r, errFeedbackDisabled)
		return
	}
	var req feedback.QuestionRequest
	if !h.decode(w, r, schema.QuestionsRequest, &req) {
		return
	}

	ctx, cancel := h.modelContext(r)
	defer cancel()

	questions, err := h.app.Questions.Generate(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsResponse{Questions: questions})
}

// modelContext bounds a generative model call by the feedback timeout.
func (h *handlers) modelContext(r *http.Request) (context.Context, context.CancelFunc) {
	if t := h.app.Cfg.Feedback.Timeout; t > 0 {
		return context.WithTimeout(r.Context(), t)
	}
	return context.WithCancel(r.Context())
}

func (h *handlers) sessionSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.hub.Serve(w, r, s.ID())
}

func (h *handlers) allSocket(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, "")
}

func (h *handlers) session(w http.ResponseWriter, r *http.Request) (*capture.Session, bool) {
	s, err := h.app.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *handlers) withSession(w http.ResponseWriter, r *http.Request, fn func(*capture.Session) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := fn(s); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// decode validates the body against the named schema, then unmarshals it.
func (h *handlers) decode(w http.ResponseWriter, r *http.Request, name string, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, errors.Join(schema.ErrInvalid, err))
		return false
	}
	if err := h.validator.Validate(name, body); err != nil {
		writeError(w, r, err)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, r, errors.Join(schema.ErrInvalid, err))
		return false
	}
	return true
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, capture.ErrAlreadyRecording), errors.Is(err, capture.ErrNotRecording):
		return http.StatusConflict
	case errors.Is(err, feedback.ErrAnswerTooShort):
		return http.StatusUnprocessableEntity
	case errors.Is(err, feedback.ErrInvalidResponse):
		return http.StatusBadGateway
	case errors.Is(err, errFeedbackDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

// requestLogger logs every request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
