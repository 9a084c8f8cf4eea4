package http

import (
	"net/http"

	"cuantrack/internal/advisor"
)

type adviceResponse struct {
	Summary string `json:"summary,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Remote  bool   `json:"remote"`
}

func (s *Server) handleAdvisorSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, adviceResponse{
		Summary: advisor.LocalSummary(s.tracker.Ledger().Transactions()),
		Remote:  s.advisor.RemoteEnabled(),
	})
}

type askRequest struct {
	Question string `json:"question"`
}

// handleAdvisorAsk forwards a question to the remote model. Advice never
// changes stored state.
func (s *Server) handleAdvisorAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	answer, err := s.advisor.Ask(r.Context(), sanitizeText(req.Question), s.tracker.Ledger().Transactions())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adviceResponse{Answer: answer, Remote: true})
}
