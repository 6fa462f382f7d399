package api

import (
	"encoding/json"
	"net/http"

	"github.com/accidentalproductions/tetristats/internal/scaling"
)

// FeedbackReq is the body of POST /api/feedback.
type FeedbackReq struct {
	FromGame  string `json:"fromGame"`
	FromScore int    `json:"fromScore"`
	ToGame    string `json:"toGame"`
	ToScore   int    `json:"toScore"`
}

func (s *Server) feedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyErr(w, "invalid JSON: ", err)
		return
	}
	from, err := scaling.ParseGame(req.FromGame)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := scaling.ParseGame(req.ToGame)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	eq, err := s.convert.AddEquivalentScore(r.Context(), from, req.FromScore, to, req.ToScore)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sampleCount": s.est.SampleCount(from, to),
		"equivalents": eq,
	})
}

func (s *Server) listFactors(w http.ResponseWriter, r *http.Request) {
	pairs := s.est.Learned().Pairs()
	if pairs == nil {
		pairs = []scaling.PairSummary{}
	}
	writeJSON(w, http.StatusOK, pairs)
}

// resetFactors clears every learned pair, or one pair when both from and
// to are given.
func (s *Server) resetFactors(w http.ResponseWriter, r *http.Request) {
	from, hasFrom, err := queryGame(r, "from")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	to, hasTo, err := queryGame(r, "to")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case hasFrom && hasTo:
		s.est.ResetPair(r.Context(), from, to)
	case hasFrom || hasTo:
		writeErr(w, http.StatusBadRequest, "from and to must be given together")
		return
	default:
		s.est.ResetAll(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}
