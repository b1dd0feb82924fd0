package daemon

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/codecraft/internal/session"
)

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.LessonID == "" && req.QuestionID == "" {
		s.jsonError(w, http.StatusBadRequest, "lesson_id or question_id is required", nil)
		return
	}

	sess, err := s.sessionService.Create(r.Context(), req)
	if err != nil {
		s.serviceError(w, "failed to create session", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessionService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "session not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleUpdateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sess, err := s.sessionService.UpdateCode(r.Context(), r.PathValue("id"), req.Code)
	if err != nil {
		s.serviceError(w, "failed to update code", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, "failed to delete session", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
	})
}

// Run handlers

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var req session.RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	run, err := s.sessionService.RunTests(r.Context(), sessionID, req)
	if err != nil {
		s.serviceError(w, "failed to start run", err)
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		final, err := s.sessionService.WaitRun(r.Context(), sessionID, run.ID.String())
		if err != nil {
			s.serviceError(w, "failed waiting for run", err)
			return
		}
		s.jsonResponse(w, http.StatusOK, runView(final))
		return
	}

	s.jsonResponse(w, http.StatusAccepted, runView(run))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.sessionService.GetRun(r.Context(), r.PathValue("id"), r.PathValue("run"))
	if err != nil {
		s.serviceError(w, "run not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, runView(run))
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	if err := s.sessionService.CancelRun(r.Context(), r.PathValue("id"), r.PathValue("run")); err != nil {
		s.serviceError(w, "failed to cancel run", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"cancelled": true,
	})
}
