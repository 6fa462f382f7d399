package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/store"
)

// Request body limits.
const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 64 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResp struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var unknown *scaling.UnknownGameError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scaling.ErrInvalidSample), errors.As(err, &unknown):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// writeBodyErr reports an unreadable request body, answering 413 when the
// body exceeded its limit.
func writeBodyErr(w http.ResponseWriter, prefix string, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeErr(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
		return
	}
	writeErr(w, http.StatusBadRequest, prefix+err.Error())
}

func scoreID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "scoreID"))
}

// queryGame parses an optional game query parameter.
func queryGame(r *http.Request, key string) (scaling.Game, bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return "", false, nil
	}
	g, err := scaling.ParseGame(v)
	if err != nil {
		return "", false, err
	}
	return g, true, nil
}
