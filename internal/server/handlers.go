package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jmatsuda/application-tailor/internal/artifacts"
	"github.com/jmatsuda/application-tailor/internal/ingest"
	"github.com/jmatsuda/application-tailor/internal/job"
	"github.com/jmatsuda/application-tailor/internal/workflow"
)

// eventPollTimeout is how long an SSE stream waits for the next event
// before emitting a keepalive comment.
const eventPollTimeout = 15 * time.Second

// CreateJobRequest creates a tailoring job. The job description may be
// given inline or as a posting URL to fetch.
type CreateJobRequest struct {
	JobDescription  string `json:"job_description" validate:"required_without=JobURL"`
	JobURL          string `json:"job_url" validate:"omitempty,url"`
	Resume          string `json:"resume" validate:"required"`
	SourceDocuments string `json:"source_documents"`
	Start           bool   `json:"start"`
}

// AnswerPayload is one interview answer.
type AnswerPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer" validate:"required"`
}

// AnswersRequest submits interview answers for a paused job.
type AnswersRequest struct {
	Answers []AnswerPayload `json:"answers" validate:"required,min=1,dive"`
}

// FitCheckRequest runs the quick go/no-go screen without creating a job.
type FitCheckRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
	Resume         string `json:"resume" validate:"required"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	description := req.JobDescription
	if description == "" {
		fetched, err := ingest.FetchPosting(r.Context(), req.JobURL)
		if err != nil {
			s.errorResponse(w, http.StatusBadGateway, err.Error())
			return
		}
		description = fetched
	}

	j, err := s.manager.Create(r.Context(), description, req.Resume, req.SourceDocuments, nil)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.Start {
		if err := s.manager.Start(r.Context(), j.ID); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"job_id": j.ID,
		"state":  string(j.State),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.manager.List(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		summaries = append(summaries, map[string]any{
			"job_id":     j.ID,
			"state":      string(j.State),
			"progress":   j.Progress(),
			"success":    j.Success,
			"created_at": j.CreatedAt,
			"updated_at": j.UpdatedAt,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": summaries})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	j, ok := s.loadJob(w, r)
	if !ok {
		return
	}

	resp := map[string]any{
		"job_id":        j.ID,
		"state":         string(j.State),
		"progress":      j.Progress(),
		"paused":        j.Paused(),
		"success":       j.Success,
		"log":           j.Log,
		"created_at":    j.CreatedAt,
		"updated_at":    j.UpdatedAt,
		"error_message": j.ErrorMessage,
	}
	if j.Done() {
		resp["result"] = j.CompletePayload()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.Start(r.Context(), id); err != nil {
		s.errorResponse(w, statusFor(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"job_id": id, "status": "started"})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.Approve(r.Context(), id); err != nil {
		s.errorResponse(w, statusFor(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"job_id": id, "status": "approved"})
}

func (s *Server) handleAnswers(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req AnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	answers := make([]workflow.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, workflow.Answer{Question: a.Question, Answer: a.Answer})
	}

	if err := s.manager.SubmitAnswers(r.Context(), id, answers); err != nil {
		s.errorResponse(w, statusFor(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"job_id": id, "status": "answers accepted"})
}

// handleEvents streams job events as SSE. The stream survives review
// pauses on keepalive comments and closes after a terminal event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	queue, err := s.manager.Events(id)
	if err != nil {
		s.errorResponse(w, statusFor(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		ev := queue.Next(eventPollTimeout)
		if ev == nil {
			if err := sse.WriteKeepalive(); err != nil {
				return
			}
			continue
		}
		if err := sse.WriteEvent(ev.Type, ev); err != nil {
			return
		}
		if ev.Type == job.EventComplete || ev.Type == job.EventError {
			return
		}
	}
}

func (s *Server) handleExportArtifacts(w http.ResponseWriter, r *http.Request) {
	j, ok := s.loadJob(w, r)
	if !ok {
		return
	}
	if !j.Done() {
		s.errorResponse(w, http.StatusConflict, "job has not finished")
		return
	}

	written, err := s.artifacts.Export(j)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"job_id": j.ID, "artifacts": written})
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kind := r.PathValue("kind")

	data, err := s.artifacts.Read(id, kind)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if kind == artifacts.KindAuditReport {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleFitCheck(w http.ResponseWriter, r *http.Request) {
	if s.commander == nil {
		s.errorResponse(w, http.StatusNotImplemented, "fit check is not configured")
		return
	}

	var req FitCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.commander.Execute(r.Context(), map[string]any{
		"job_description": req.JobDescription,
		"resume":          req.Resume,
	})
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) loadJob(w http.ResponseWriter, r *http.Request) (*job.Job, bool) {
	j, err := s.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, statusFor(err), err.Error())
		return nil, false
	}
	return j, true
}

func statusFor(err error) int {
	if errors.Is(err, job.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusConflict
}
