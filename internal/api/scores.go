package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/accidentalproductions/tetristats/internal/conversion"
	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/store"
)

// ScoreReq is the body of POST /api/scores and PUT /api/scores/{id}.
type ScoreReq struct {
	Game         string     `json:"game"`
	Score        int        `json:"score"`
	StartLevel   *int       `json:"startLevel,omitempty"`
	EndLevel     *int       `json:"endLevel,omitempty"`
	LinesCleared *int       `json:"linesCleared,omitempty"`
	DateRecorded *time.Time `json:"dateRecorded,omitempty"`
	MediaPath    string     `json:"mediaPath,omitempty"`
}

func (req ScoreReq) toScore() (store.Score, string) {
	g, err := scaling.ParseGame(req.Game)
	if err != nil {
		return store.Score{}, err.Error()
	}
	if req.Score < 0 {
		return store.Score{}, "score must be non-negative"
	}
	sc := store.Score{
		Game:         g,
		Score:        req.Score,
		StartLevel:   req.StartLevel,
		EndLevel:     req.EndLevel,
		LinesCleared: req.LinesCleared,
		MediaPath:    req.MediaPath,
	}
	if req.DateRecorded != nil {
		sc.DateRecorded = *req.DateRecorded
	}
	return sc, ""
}

func decodeScoreReq(w http.ResponseWriter, r *http.Request) (store.Score, bool) {
	var req ScoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyErr(w, "invalid JSON: ", err)
		return store.Score{}, false
	}
	sc, msg := req.toScore()
	if msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return store.Score{}, false
	}
	return sc, true
}

type gamesResp struct {
	Games  []scaling.Game `json:"games"`
	Played []scaling.Game `json:"played"`
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	played, err := s.scores.Games(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if played == nil {
		played = []scaling.Game{}
	}
	writeJSON(w, http.StatusOK, gamesResp{Games: scaling.AllGames(), Played: played})
}

func (s *Server) listScores(w http.ResponseWriter, r *http.Request) {
	game, ok, err := queryGame(r, "game")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	var scores []store.Score
	if ok {
		scores, err = s.scores.ByGame(r.Context(), game)
	} else {
		scores, err = s.scores.All(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if scores == nil {
		scores = []store.Score{}
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) createScore(w http.ResponseWriter, r *http.Request) {
	sc, ok := decodeScoreReq(w, r)
	if !ok {
		return
	}
	res, err := s.convert.Submit(r.Context(), sc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) getScore(w http.ResponseWriter, r *http.Request) {
	id, err := scoreID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid score id")
		return
	}
	sc, err := s.scores.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// restoreScore writes a score under an explicit id, replacing any row with
// that id. Clients use it to undo a delete.
func (s *Server) restoreScore(w http.ResponseWriter, r *http.Request) {
	id, err := scoreID(r)
	if err != nil || id <= 0 {
		writeErr(w, http.StatusBadRequest, "invalid score id")
		return
	}
	sc, ok := decodeScoreReq(w, r)
	if !ok {
		return
	}
	sc.ID = id
	if err := s.scores.Insert(r.Context(), &sc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// deleteScore returns the deleted score so the client can restore it.
func (s *Server) deleteScore(w http.ResponseWriter, r *http.Request) {
	id, err := scoreID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid score id")
		return
	}
	sc, err := s.scores.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.scores.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) attachMedia(w http.ResponseWriter, r *http.Request) {
	if s.media == nil {
		writeErr(w, http.StatusNotImplemented, "media storage not configured")
		return
	}
	id, err := scoreID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid score id")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeBodyErr(w, "missing file: ", err)
		return
	}
	defer file.Close()

	path, err := s.media.AttachReader(r.Context(), id, hdr.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mediaPath": path})
}

func (s *Server) detachMedia(w http.ResponseWriter, r *http.Request) {
	if s.media == nil {
		writeErr(w, http.StatusNotImplemented, "media storage not configured")
		return
	}
	id, err := scoreID(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid score id")
		return
	}
	if err := s.media.Detach(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GameStats summarises one game's history.
type GameStats struct {
	Game      scaling.Game `json:"game"`
	Count     int          `json:"count"`
	Average   float64      `json:"average"`
	HighScore int          `json:"highScore"`
}

type statsResp struct {
	TotalScores     int         `json:"totalScores"`
	ShowConversions bool        `json:"showConversions"`
	Games           []GameStats `json:"games"`
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	only, filtered, err := queryGame(r, "game")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := s.scores.Count(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	played, err := s.scores.Games(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := statsResp{
		TotalScores:     total,
		ShowConversions: conversion.ShouldShowConversions(total, len(played)),
		Games:           []GameStats{},
	}
	for _, g := range played {
		if filtered && g != only {
			continue
		}
		gs, err := s.gameStats(r, g)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Games = append(resp.Games, gs)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) gameStats(r *http.Request, g scaling.Game) (GameStats, error) {
	ctx := r.Context()
	scores, err := s.scores.ByGame(ctx, g)
	if err != nil {
		return GameStats{}, err
	}
	avg, _, err := s.scores.Average(ctx, g)
	if err != nil {
		return GameStats{}, err
	}
	high, _, err := s.scores.HighScore(ctx, g)
	if err != nil {
		return GameStats{}, err
	}
	return GameStats{Game: g, Count: len(scores), Average: avg, HighScore: high}, nil
}

type conversionsResp struct {
	Game            scaling.Game `json:"game"`
	Score           int          `json:"score"`
	ShowConversions bool         `json:"showConversions"`
	Equivalents     any          `json:"equivalents"`
}

// conversions answers GET /api/conversions?game=G&score=N. With all=true
// the history criteria are ignored and every played game is converted.
func (s *Server) conversions(w http.ResponseWriter, r *http.Request) {
	game, ok, err := queryGame(r, "game")
	if err != nil || !ok {
		writeErr(w, http.StatusBadRequest, "game is required and must be a known game")
		return
	}
	score, err := strconv.Atoi(r.URL.Query().Get("score"))
	if err != nil || score < 0 {
		writeErr(w, http.StatusBadRequest, "score must be a non-negative integer")
		return
	}

	resp := conversionsResp{Game: game, Score: score}
	if r.URL.Query().Get("all") == "true" {
		played, err := s.scores.Games(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		resp.ShowConversions = true
		resp.Equivalents = s.convert.ConvertForAllPlayedGames(game, score, played)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	eq, show, err := s.convert.Equivalents(r.Context(), game, score)
	if err != nil {
		writeError(w, err)
		return
	}
	resp.ShowConversions = show
	resp.Equivalents = eq
	if eq == nil {
		resp.Equivalents = []any{}
	}
	writeJSON(w, http.StatusOK, resp)
}
