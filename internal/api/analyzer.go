package api

import (
	"net/http"
	"strconv"

	"github.com/accidentalproductions/tetristats/internal/analyzer"
	"github.com/accidentalproductions/tetristats/internal/scaling"
)

// loadAnalyzer rebuilds the analyzer from the persisted working set.
func (s *Server) loadAnalyzer(w http.ResponseWriter, r *http.Request) (*analyzer.Analyzer, bool) {
	if s.samples == nil {
		writeErr(w, http.StatusNotImplemented, "analyzer storage not configured")
		return nil, false
	}
	samples, err := s.samples.All(r.Context())
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	a := analyzer.New(s.opts.Baseline)
	a.AddSamples(samples)
	return a, true
}

func (s *Server) listSamples(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadAnalyzer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Samples())
}

// addSamples accepts a JSON array in the sample file format.
func (s *Server) addSamples(w http.ResponseWriter, r *http.Request) {
	if s.samples == nil {
		writeErr(w, http.StatusNotImplemented, "analyzer storage not configured")
		return
	}
	samples, err := analyzer.LoadSamples(r.Body)
	if err != nil {
		writeBodyErr(w, "", err)
		return
	}
	if err := s.samples.Add(r.Context(), samples...); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"added": len(samples)})
}

func (s *Server) clearSamples(w http.ResponseWriter, r *http.Request) {
	if s.samples == nil {
		writeErr(w, http.StatusNotImplemented, "analyzer storage not configured")
		return
	}
	if err := s.samples.Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) analyzedFactors(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadAnalyzer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"baseline": a.Baseline(),
		"factors":  a.AnalyzeScoringCurves(),
	})
}

func (s *Server) analyzerReport(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadAnalyzer(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	a.Report(w)
}

func (s *Server) analyzerCode(w http.ResponseWriter, r *http.Request) {
	a, ok := s.loadAnalyzer(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(a.GenerateScalingFactorCode()))
}

// analyzerValidate answers GET /api/analyzer/validate?from=A&to=B&score=N.
func (s *Server) analyzerValidate(w http.ResponseWriter, r *http.Request) {
	from, okFrom, err := queryGame(r, "from")
	if err != nil || !okFrom {
		writeErr(w, http.StatusBadRequest, "from is required and must be a known game")
		return
	}
	to, okTo, err := queryGame(r, "to")
	if err != nil || !okTo {
		writeErr(w, http.StatusBadRequest, "to is required and must be a known game")
		return
	}
	score, err := strconv.Atoi(r.URL.Query().Get("score"))
	if err != nil || score < 0 {
		writeErr(w, http.StatusBadRequest, "score must be a non-negative integer")
		return
	}
	a, ok := s.loadAnalyzer(w, r)
	if !ok {
		return
	}
	factor := a.ValidateConversion(from, to, score)
	writeJSON(w, http.StatusOK, map[string]any{
		"from":      from,
		"to":        to,
		"score":     score,
		"bucket":    scaling.BucketFor(score).String(),
		"factor":    factor,
		"converted": scaling.Apply(score, factor),
	})
}
