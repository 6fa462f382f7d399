package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/accidentalproductions/tetristats/internal/analyzer"
	"github.com/accidentalproductions/tetristats/internal/scaling"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(v int) *int { return &v }

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if s.Dialect() != "sqlite3" {
		t.Errorf("dialect = %q, want sqlite3", s.Dialect())
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.ScoreRepo().Insert(ctx, &Score{Game: scaling.NESTetris, Score: 1000}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	n, err := s.ScoreRepo().Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestScoreInsertAndGet(t *testing.T) {
	repo := openTestStore(t).ScoreRepo()
	ctx := context.Background()

	date := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	in := &Score{
		Game:         scaling.TetrisDX,
		Score:        123456,
		StartLevel:   intp(9),
		EndLevel:     intp(15),
		LinesCleared: intp(61),
		DateRecorded: date,
	}
	if err := repo.Insert(ctx, in); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if in.ID == 0 {
		t.Fatal("expected id to be set")
	}

	got, err := repo.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Game != scaling.TetrisDX || got.Score != 123456 {
		t.Errorf("got %s %d, want %s 123456", got.Game, got.Score, scaling.TetrisDX)
	}
	if got.StartLevel == nil || *got.StartLevel != 9 {
		t.Errorf("start level = %v, want 9", got.StartLevel)
	}
	if got.LinesCleared == nil || *got.LinesCleared != 61 {
		t.Errorf("lines cleared = %v, want 61", got.LinesCleared)
	}
	if !got.DateRecorded.Equal(date) {
		t.Errorf("date = %v, want %v", got.DateRecorded, date)
	}
	if got.MediaPath != "" {
		t.Errorf("media = %q, want empty", got.MediaPath)
	}
}

func TestScoreOptionalFieldsStayNil(t *testing.T) {
	repo := openTestStore(t).ScoreRepo()
	ctx := context.Background()

	in := &Score{Game: scaling.Apotris, Score: 5}
	if err := repo.Insert(ctx, in); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StartLevel != nil || got.EndLevel != nil || got.LinesCleared != nil {
		t.Errorf("expected nil optional fields, got %+v", got)
	}
	if got.DateRecorded.IsZero() {
		t.Error("expected insert to stamp the date")
	}
}

func TestScoreInsertValidation(t *testing.T) {
	repo := openTestStore(t).ScoreRepo()
	ctx := context.Background()

	if err := repo.Insert(ctx, &Score{Game: "", Score: 10}); err == nil {
		t.Error("expected error for empty game")
	}
	if err := repo.Insert(ctx, &Score{Game: scaling.NESTetris, Score: -1}); err == nil {
		t.Error("expected error for negative score")
	}
}

func TestScoreGetMissing(t *testing.T) {
	repo := openTestStore(t).ScoreRepo()
	_, err := repo.Get(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound = false")
	}
}

func TestScoreDeleteAndRestore(t *testing.T) {
	repo := openTestStore(t).ScoreRepo()
	ctx := context.Background()

	s := &Score{Game: scaling.NESTetris, Score: 999999, DateRecorded: time.UnixMilli(1700000000000)}
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	id := s.ID

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}

	restored := *s
	if err := repo.Insert(ctx, &restored); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.ID != id {
		t.Errorf("restored id = %d, want %d", restored.ID, id)
	}
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get restored: %v", err)
	}
	if got.Score != 999999 {
		t.Errorf("score = %d, want 999999", got.Score)
	}
}

func TestScoreInsertWithIDReplaces(t *testing.T) {
	repo := openTestStore(t).ScoreRepo()
	ctx := context.Background()

	s := &Score{Game: scaling.NESTetris, Score: 100}
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Score = 200
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatalf("replace: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	got, err := repo.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Score != 200 {
		t.Errorf("score = %d, want 200", got.Score)
	}
}

func TestScoreQueries(t *testing.T) {
	repo := openTestStore(t).ScoreRepo()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []Score{
		{Game: scaling.NESTetris, Score: 300000, DateRecorded: base.Add(2 * time.Hour)},
		{Game: scaling.NESTetris, Score: 100000, DateRecorded: base},
		{Game: scaling.TetrisDS, Score: 50000, DateRecorded: base.Add(time.Hour)},
		{Game: scaling.NESTetris, Score: 200000, DateRecorded: base.Add(3 * time.Hour)},
	}
	for i := range seed {
		if err := repo.Insert(ctx, &seed[i]); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len(all) = %d, want 4", len(all))
	}
	if all[0].Score != 200000 || all[3].Score != 100000 {
		t.Errorf("all not newest first: %d ... %d", all[0].Score, all[3].Score)
	}

	nes, err := repo.ByGame(ctx, scaling.NESTetris)
	if err != nil {
		t.Fatalf("by game: %v", err)
	}
	want := []int{100000, 300000, 200000}
	if len(nes) != len(want) {
		t.Fatalf("len(nes) = %d, want %d", len(nes), len(want))
	}
	for i, w := range want {
		if nes[i].Score != w {
			t.Errorf("nes[%d] = %d, want %d", i, nes[i].Score, w)
		}
	}

	games, err := repo.Games(ctx)
	if err != nil {
		t.Fatalf("games: %v", err)
	}
	if len(games) != 2 {
		t.Errorf("games = %v, want 2 distinct", games)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 4 {
		t.Errorf("count = %d, want 4", n)
	}

	avg, ok, err := repo.Average(ctx, scaling.NESTetris)
	if err != nil || !ok {
		t.Fatalf("average: %v ok=%v", err, ok)
	}
	if avg != 200000 {
		t.Errorf("average = %v, want 200000", avg)
	}

	high, ok, err := repo.HighScore(ctx, scaling.NESTetris)
	if err != nil || !ok {
		t.Fatalf("high score: %v ok=%v", err, ok)
	}
	if high != 300000 {
		t.Errorf("high = %d, want 300000", high)
	}

	if _, ok, err := repo.Average(ctx, scaling.Apotris); err != nil || ok {
		t.Errorf("average for unplayed game: ok=%v err=%v", ok, err)
	}
	if _, ok, err := repo.HighScore(ctx, scaling.Apotris); err != nil || ok {
		t.Errorf("high score for unplayed game: ok=%v err=%v", ok, err)
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Errorf("count after delete all = %d", n)
	}
}

func TestScoreSetMedia(t *testing.T) {
	repo := openTestStore(t).ScoreRepo()
	ctx := context.Background()

	s := &Score{Game: scaling.TetrisEffect, Score: 1}
	if err := repo.Insert(ctx, s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.SetMedia(ctx, s.ID, "/media/a.png"); err != nil {
		t.Fatalf("set media: %v", err)
	}
	got, _ := repo.Get(ctx, s.ID)
	if got.MediaPath != "/media/a.png" {
		t.Errorf("media = %q", got.MediaPath)
	}

	if err := repo.SetMedia(ctx, s.ID, ""); err != nil {
		t.Fatalf("clear media: %v", err)
	}
	got, _ = repo.Get(ctx, s.ID)
	if got.MediaPath != "" {
		t.Errorf("media after clear = %q", got.MediaPath)
	}

	if err := repo.SetMedia(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := openTestStore(t).SettingsRepo()
	ctx := context.Background()

	_, ok, err := repo.GetSetting(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}

	if err := repo.PutSetting(ctx, "k", "v1"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutSetting(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := repo.GetSetting(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v != "v2" {
		t.Errorf("value = %q, want v2", v)
	}

	if err := repo.DeleteSetting(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := repo.GetSetting(ctx, "k"); ok {
		t.Error("expected key to be gone")
	}
	if err := repo.PutSetting(ctx, "", "x"); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestEstimatorPersistsThroughSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	est := scaling.OpenEstimator(ctx, nil, s.SettingsRepo())
	if err := est.RecordSample(ctx, scaling.NESTetris, scaling.TetrisDS, 200000, 240000); err != nil {
		t.Fatalf("record: %v", err)
	}

	again := scaling.OpenEstimator(ctx, nil, s.SettingsRepo())
	if n := again.SampleCount(scaling.NESTetris, scaling.TetrisDS); n != 1 {
		t.Errorf("sample count = %d, want 1", n)
	}
	raw, ok, err := s.SettingsRepo().GetSetting(ctx, scaling.LearnedFactorsKey)
	if err != nil || !ok || raw == "" {
		t.Errorf("blob missing: ok=%v err=%v", ok, err)
	}
}

func TestSampleRepo(t *testing.T) {
	repo := openTestStore(t).SampleRepo()
	ctx := context.Background()

	in := []analyzer.Sample{
		{Game: scaling.NESTetris, Score: 200000, Level: 18, SkillLevel: analyzer.SkillIntermediate},
		{Game: scaling.TetrisDS, Score: 50000, Level: 10, SkillLevel: analyzer.SkillBeginner, Notes: "first try"},
	}
	if err := repo.Add(ctx, in...); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.Add(ctx); err != nil {
		t.Fatalf("add nothing: %v", err)
	}

	got, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("sample %d = %+v, want %+v", i, got[i], in[i])
		}
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = repo.All(ctx)
	if len(got) != 0 {
		t.Errorf("len after clear = %d", len(got))
	}
}

func TestTablesFromSchema(t *testing.T) {
	var scores, settings bool
	for _, tbl := range Tables() {
		switch tbl.Name {
		case ScoresTable:
			scores = true
			if tbl.PrimaryKey[0].Name != "id" || !tbl.PrimaryKey[0].Increment {
				t.Errorf("scores pk = %+v", tbl.PrimaryKey[0])
			}
			if len(tbl.Indexes) != 2 {
				t.Errorf("scores indexes = %d, want 2", len(tbl.Indexes))
			}
		case SettingsTable:
			settings = true
			if tbl.PrimaryKey[0].Name != "key" {
				t.Errorf("settings pk = %q, want key", tbl.PrimaryKey[0].Name)
			}
		}
	}
	if !scores || !settings {
		t.Error("missing tables")
	}
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{"", DriverSQLite, false},
		{"SQLite", DriverSQLite, false},
		{"postgres", DriverPostgres, false},
		{"pgx", DriverPostgres, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDriver(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDriver(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDriver(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/tmp/a.db", "file:/tmp/a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"file::memory:?cache=shared", "file::memory:?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
