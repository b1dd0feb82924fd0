package daemon

import (
	"encoding/json"
	"net/http"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/piston"
)

// runResponse is a run with its summary line
type runResponse struct {
	*domain.Run
	Summary string `json:"summary"`
	Passed  int    `json:"passed"`
	Total   int    `json:"total"`
}

func runView(run *domain.Run) runResponse {
	passed, total := domain.Summarize(run.Results)
	return runResponse{
		Run:     run,
		Summary: run.Summary(),
		Passed:  passed,
		Total:   total,
	}
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
		Code     string `json:"code"`
		Stdin    string `json:"stdin,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if !piston.IsSupported(req.Language) {
		s.serviceError(w, "unsupported language", &piston.UnsupportedLanguageError{Language: req.Language})
		return
	}

	out, err := s.orchestrator.Execute(r.Context(), req.Language, req.Code, req.Stdin)
	if err != nil {
		s.serviceError(w, "execution failed", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, out)
}
