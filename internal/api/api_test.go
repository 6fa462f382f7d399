package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accidentalproductions/tetristats/internal/conversion"
	"github.com/accidentalproductions/tetristats/internal/media"
	"github.com/accidentalproductions/tetristats/internal/scaling"
	"github.com/accidentalproductions/tetristats/internal/store"
)

type testEnv struct {
	srv *httptest.Server
	st  *store.Store
	est *scaling.Estimator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	est := scaling.OpenEstimator(context.Background(), nil, st.SettingsRepo())
	est.SetWarningOutput(nil)

	files, err := media.NewStore(filepath.Join(dir, "media"))
	require.NoError(t, err)

	s := New(Options{
		Scores:    st.ScoreRepo(),
		Estimator: est,
		Media:     media.NewAttacher(files, st.ScoreRepo(), nil),
		Samples:   st.SampleRepo(),
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, st: st, est: est}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) addScore(t *testing.T, game scaling.Game, score int) conversion.Result {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/scores", ScoreReq{Game: string(game), Score: score})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[conversion.Result](t, resp)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGames(t *testing.T) {
	e := newTestEnv(t)
	e.addScore(t, scaling.Apotris, 1000)

	got := decode[gamesResp](t, e.do(t, http.MethodGet, "/api/games", nil))
	assert.Len(t, got.Games, 9)
	assert.Equal(t, []scaling.Game{scaling.Apotris}, got.Played)
}

func TestCreateScoreShowsConversionsAfterThreshold(t *testing.T) {
	e := newTestEnv(t)

	first := e.addScore(t, scaling.NESTetris, 100000)
	assert.False(t, first.ShowConversions)
	assert.NotZero(t, first.Score.ID)

	e.addScore(t, scaling.GameBoyTetris, 90000)
	third := e.addScore(t, scaling.NESTetris, 200000)

	require.True(t, third.ShowConversions)
	require.Len(t, third.Equivalents, 1)
	assert.Equal(t, conversion.Equivalent{Game: scaling.GameBoyTetris, Score: 150000}, third.Equivalents[0])
}

func TestCreateScoreRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/api/scores", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/scores", ScoreReq{Game: "Tetris 99", Score: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[errResp](t, resp).Error, "Tetris 99")

	resp = e.do(t, http.MethodPost, "/api/scores", ScoreReq{Game: "NES Tetris", Score: -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScoreLifecycle(t *testing.T) {
	e := newTestEnv(t)
	created := e.addScore(t, scaling.TetrisDX, 4242)
	id := created.Score.ID
	path := "/api/scores/" + strconv.Itoa(id)

	got := decode[store.Score](t, e.do(t, http.MethodGet, path, nil))
	assert.Equal(t, 4242, got.Score)

	deleted := e.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, deleted.StatusCode)
	old := decode[store.Score](t, deleted)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, path, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodDelete, path, nil).StatusCode)

	restore := ScoreReq{Game: string(old.Game), Score: old.Score, DateRecorded: &old.DateRecorded}
	resp := e.do(t, http.MethodPut, path, restore)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, decode[store.Score](t, resp).ID)

	list := decode[[]store.Score](t, e.do(t, http.MethodGet, "/api/scores?game=Tetris%20DX", nil))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/scores/abc", nil).StatusCode)
}

func TestStats(t *testing.T) {
	e := newTestEnv(t)
	e.addScore(t, scaling.NESTetris, 100)
	e.addScore(t, scaling.NESTetris, 300)
	e.addScore(t, scaling.TetrisDS, 50)

	got := decode[statsResp](t, e.do(t, http.MethodGet, "/api/stats", nil))
	assert.Equal(t, 3, got.TotalScores)
	assert.True(t, got.ShowConversions)
	require.Len(t, got.Games, 2)

	nes := decode[statsResp](t, e.do(t, http.MethodGet, "/api/stats?game=NES%20Tetris", nil))
	require.Len(t, nes.Games, 1)
	assert.Equal(t, GameStats{Game: scaling.NESTetris, Count: 2, Average: 200, HighScore: 300}, nes.Games[0])
}

func TestConversions(t *testing.T) {
	e := newTestEnv(t)
	e.addScore(t, scaling.NESTetris, 1)
	e.addScore(t, scaling.TetrisDS, 1)

	q := url.Values{"game": {"NES Tetris"}, "score": {"50000"}}
	gated := decode[conversionsResp](t, e.do(t, http.MethodGet, "/api/conversions?"+q.Encode(), nil))
	assert.False(t, gated.ShowConversions)

	q.Set("all", "true")
	resp := e.do(t, http.MethodGet, "/api/conversions?"+q.Encode(), nil)
	var body struct {
		ShowConversions bool                    `json:"showConversions"`
		Equivalents     []conversion.Equivalent `json:"equivalents"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.ShowConversions)
	require.Len(t, body.Equivalents, 1)
	assert.Equal(t, 150000, body.Equivalents[0].Score)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/conversions?game=NES%20Tetris", nil).StatusCode)
}

func TestFeedbackAndFactors(t *testing.T) {
	e := newTestEnv(t)
	e.addScore(t, scaling.NESTetris, 50000)
	e.addScore(t, scaling.GameBoyTetris, 1)

	resp := e.do(t, http.MethodPost, "/api/feedback", FeedbackReq{
		FromGame: "NES Tetris", FromScore: 50000, ToGame: "Game Boy Tetris", ToScore: 60000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fb struct {
		SampleCount int                     `json:"sampleCount"`
		Equivalents []conversion.Equivalent `json:"equivalents"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fb))
	assert.Equal(t, 1, fb.SampleCount)
	require.Len(t, fb.Equivalents, 1)
	assert.Equal(t, 60000, fb.Equivalents[0].Score)
	assert.True(t, fb.Equivalents[0].UsesLearnedFactor)

	pairs := decode[[]scaling.PairSummary](t, e.do(t, http.MethodGet, "/api/factors", nil))
	require.Len(t, pairs, 1)
	require.NotNil(t, pairs[0].Low)
	assert.InDelta(t, 1.2, *pairs[0].Low, 1e-9)

	q := url.Values{"from": {"NES Tetris"}}
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodDelete, "/api/factors?"+q.Encode(), nil).StatusCode)

	q.Set("to", "Game Boy Tetris")
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/api/factors?"+q.Encode(), nil).StatusCode)
	assert.Zero(t, e.est.SampleCount(scaling.NESTetris, scaling.GameBoyTetris))

	pairs = decode[[]scaling.PairSummary](t, e.do(t, http.MethodGet, "/api/factors", nil))
	assert.Empty(t, pairs)
}

func TestFeedbackInvalidSample(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPost, "/api/feedback", FeedbackReq{
		FromGame: "NES Tetris", FromScore: 0, ToGame: "Tetris DS", ToScore: 10,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/feedback", FeedbackReq{
		FromGame: "NES Tetris", FromScore: 10, ToGame: "NES Tetris", ToScore: 10,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResetAllFactors(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.est.RecordSample(context.Background(), scaling.TetrisDS, scaling.Apotris, 10, 20))

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/api/factors", nil).StatusCode)
	assert.Empty(t, e.est.Learned())
}

const analyzerSamples = `[
  {"game": "NES Tetris", "score": 200000, "level": 18, "skillLevel": "intermediate"},
  {"game": "Tetris DS", "score": 50000, "level": 10, "skillLevel": "intermediate"}
]`

func TestAnalyzerEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/api/analyzer/samples", analyzerSamples)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, map[string]int{"added": 2}, decode[map[string]int](t, resp))

	bad := e.do(t, http.MethodPost, "/api/analyzer/samples", `[{"game": "NES Tetris"}]`)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	var factors struct {
		Baseline scaling.Game                      `json:"baseline"`
		Factors  map[scaling.Game]scaling.Bucketed `json:"factors"`
	}
	require.NoError(t, json.NewDecoder(e.do(t, http.MethodGet, "/api/analyzer/factors", nil).Body).Decode(&factors))
	assert.Equal(t, scaling.NESTetris, factors.Baseline)
	assert.Equal(t, 4.0, factors.Factors[scaling.TetrisDS].Low)

	report := e.do(t, http.MethodGet, "/api/analyzer/report", nil)
	raw, _ := io.ReadAll(report.Body)
	assert.Contains(t, string(raw), "Scaling Factor Analysis Report")

	code := e.do(t, http.MethodGet, "/api/analyzer/code", nil)
	raw, _ = io.ReadAll(code.Body)
	assert.Contains(t, string(raw), "Bucketed{")

	q := url.Values{"from": {"NES Tetris"}, "to": {"Tetris DS"}, "score": {"1000"}}
	var v struct {
		Factor    float64 `json:"factor"`
		Converted int     `json:"converted"`
		Bucket    string  `json:"bucket"`
	}
	require.NoError(t, json.NewDecoder(e.do(t, http.MethodGet, "/api/analyzer/validate?"+q.Encode(), nil).Body).Decode(&v))
	assert.Equal(t, 4.0, v.Factor)
	assert.Equal(t, 4000, v.Converted)
	assert.Equal(t, "low", v.Bucket)

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/api/analyzer/samples", nil).StatusCode)
	samples := decode[[]json.RawMessage](t, e.do(t, http.MethodGet, "/api/analyzer/samples", nil))
	assert.Empty(t, samples)
}

func TestMediaUploadAndDetach(t *testing.T) {
	e := newTestEnv(t)
	id := e.addScore(t, scaling.TetrisEffect, 777).Score.ID
	path := "/api/scores/" + strconv.Itoa(id) + "/media"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "clear.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png bytes"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored := decode[map[string]string](t, resp)["mediaPath"]
	assert.True(t, strings.HasSuffix(stored, ".png"))
	_, err = os.Stat(stored)
	require.NoError(t, err)

	got, err := e.st.ScoreRepo().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, stored, got.MediaPath)

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, path, nil).StatusCode)
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestOptionalRoutesWithoutBackends(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "bare.db"))
	require.NoError(t, err)
	defer st.Close()
	est := scaling.NewEstimator(nil, st.SettingsRepo())
	srv := httptest.NewServer(New(Options{Scores: st.ScoreRepo(), Estimator: est}).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/analyzer/samples")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/scores/1/media", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/scores", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestOversizedBodiesAreRejected(t *testing.T) {
	e := newTestEnv(t)
	padding := strings.Repeat(" ", maxBodyBytes+1)

	for _, path := range []string{"/api/scores", "/api/feedback", "/api/analyzer/samples"} {
		t.Run(path, func(t *testing.T) {
			resp := e.do(t, http.MethodPost, path, "["+padding+"]")
			assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		})
	}

	samples, err := e.st.SampleRepo().All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, samples)
}
