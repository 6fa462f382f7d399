package media

import (
	"context"
	"fmt"
	"io"

	"github.com/accidentalproductions/tetristats/internal/store"
)

// ScoreMedia is the part of store.ScoreRepo that media attachment needs.
type ScoreMedia interface {
	Get(ctx context.Context, id int) (*store.Score, error)
	SetMedia(ctx context.Context, id int, path string) error
}

// Attacher links stored media files to scores.
type Attacher struct {
	files  *Store
	scores ScoreMedia
	warn   io.Writer
}

// NewAttacher creates an Attacher. Cleanup failures are reported to warn.
func NewAttacher(files *Store, scores ScoreMedia, warn io.Writer) *Attacher {
	if warn == nil {
		warn = io.Discard
	}
	return &Attacher{files: files, scores: scores, warn: warn}
}

// Attach copies src into the store and attaches it to the score,
// replacing any previous attachment.
func (a *Attacher) Attach(ctx context.Context, id int, src string) (string, error) {
	sc, err := a.scores.Get(ctx, id)
	if err != nil {
		return "", err
	}
	path, err := a.files.Import(src)
	if err != nil {
		return "", err
	}
	return a.link(ctx, sc, path)
}

// AttachReader is Attach for uploaded content.
func (a *Attacher) AttachReader(ctx context.Context, id int, name string, r io.Reader) (string, error) {
	sc, err := a.scores.Get(ctx, id)
	if err != nil {
		return "", err
	}
	path, err := a.files.Put(name, r)
	if err != nil {
		return "", err
	}
	return a.link(ctx, sc, path)
}

func (a *Attacher) link(ctx context.Context, sc *store.Score, path string) (string, error) {
	if err := a.scores.SetMedia(ctx, sc.ID, path); err != nil {
		a.discard(path)
		return "", err
	}
	if sc.MediaPath != "" && sc.MediaPath != path {
		a.discard(sc.MediaPath)
	}
	return path, nil
}

// Detach removes the score's attachment and deletes the copied file.
func (a *Attacher) Detach(ctx context.Context, id int) error {
	sc, err := a.scores.Get(ctx, id)
	if err != nil {
		return err
	}
	if sc.MediaPath == "" {
		return nil
	}
	if err := a.scores.SetMedia(ctx, id, ""); err != nil {
		return err
	}
	a.discard(sc.MediaPath)
	return nil
}

func (a *Attacher) discard(path string) {
	if err := a.files.Remove(path); err != nil {
		fmt.Fprintf(a.warn, "warning: %v\n", err)
	}
}
