// Package collage builds before/after panels for every student of a roster.
package collage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/ivlev/photoreel/internal/config"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// ErrPhotosNotFound is returned when the photos directory does not exist.
var ErrPhotosNotFound = errors.New("collage: photos directory not found")

// Log statuses, as written to the processing log.
const (
	StatusDone    = "✅ Procesado"
	StatusMissing = "❌ Imágenes no encontradas"
	statusError   = "❌ Error: "
)

// Entry is one row of the processing log.
type Entry struct {
	ID       string
	FullName string
	Status   string
	Output   string
}

// Summary counts the outcome of a run.
type Summary struct {
	Total     int
	Processed int
	Missing   int
	Failed    int
	LogPath   string
}

type Runner struct {
	Config  config.Collage
	Labeler *Labeler
	Logger  zerolog.Logger
}

func NewRunner(cfg config.Collage, logger zerolog.Logger) (*Runner, error) {
	l, err := NewLabeler(cfg.FontPath)
	if err != nil {
		return nil, err
	}
	return &Runner{Config: cfg, Labeler: l, Logger: logger}, nil
}

// Run processes every roster row and writes the log. Per-student failures
// are recorded in the log, not returned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if fi, err := os.Stat(r.Config.PhotosDir); err != nil || !fi.IsDir() {
		return Summary{}, fmt.Errorf("%w: %s", ErrPhotosNotFound, r.Config.PhotosDir)
	}
	students, err := LoadRoster(r.Config.RosterPath)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(r.Config.OutputDir, 0755); err != nil {
		return Summary{}, err
	}

	r.Logger.Info().
		Str("photos", r.Config.PhotosDir).
		Str("output", r.Config.OutputDir).
		Int("students", len(students)).
		Msg("[*] Обработка списка учеников")

	pool, err := ants.NewPool(max(1, r.Config.Workers))
	if err != nil {
		return Summary{}, err
	}
	defer pool.Release()

	entries := make([]Entry, len(students))
	var wg sync.WaitGroup
	for i, s := range students {
		i, s := i, s
		entries[i] = Entry{ID: s.ID, FullName: s.FullName()}
		if err := ctx.Err(); err != nil {
			entries[i].Status = statusError + err.Error()
			continue
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			entries[i] = r.process(s)
		})
		if err != nil {
			wg.Done()
			entries[i].Status = statusError + err.Error()
		}
	}
	wg.Wait()

	sum := Summary{Total: len(entries), LogPath: filepath.Join(r.Config.OutputDir, r.Config.LogName)}
	for _, e := range entries {
		switch e.Status {
		case StatusDone:
			sum.Processed++
		case StatusMissing:
			sum.Missing++
		default:
			sum.Failed++
		}
	}
	if err := WriteLog(sum.LogPath, entries); err != nil {
		return sum, fmt.Errorf("processing log: %w", err)
	}
	return sum, nil
}

func (r *Runner) process(s Student) Entry {
	e := Entry{ID: s.ID, FullName: s.FullName()}
	log := r.Logger.With().Str("id", s.ID).Str("name", e.FullName).Logger()

	before, after, ok := FindPair(r.Config.PhotosDir, s.ID)
	if !ok {
		log.Warn().Msg("[!] Фотографии не найдены")
		e.Status = StatusMissing
		return e
	}

	out, err := r.Build(before, after, s)
	if err != nil {
		log.Error().Err(err).Msg("[!] Ошибка обработки")
		e.Status = statusError + err.Error()
		return e
	}

	log.Info().Str("file", out).Msg("[>] Коллаж сохранен")
	e.Status = StatusDone
	e.Output = out
	return e
}

// Build renders and saves the collage of one student, returning its path.
func (r *Runner) Build(beforePath, afterPath string, s Student) (string, error) {
	before, err := Open(beforePath)
	if err != nil {
		return "", err
	}
	after, err := Open(afterPath)
	if err != nil {
		return "", err
	}

	canvas := Compose(before, after, r.Config.Width, r.Config.Height)
	if _, err := r.Labeler.Draw(canvas, s.FullName()); err != nil {
		return "", err
	}
	if r.Config.QRCode {
		if canvas, err = StampQR(canvas, s.ID); err != nil {
			return "", err
		}
	}

	out := filepath.Join(r.Config.OutputDir, s.ID+"_final.jpg")
	if err := imaging.Save(canvas, out, imaging.JPEGQuality(95)); err != nil {
		return "", err
	}
	return out, nil
}

// WriteLog stores entries as a comma-separated file with a header row.
func WriteLog(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"N", "Nombre completo", "Estado"})
	for _, e := range entries {
		_ = w.Write([]string{e.ID, e.FullName, e.Status})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
