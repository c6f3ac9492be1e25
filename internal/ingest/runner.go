// Package ingest orchestrates dataset conversion: split resolution, episode
// loading, normalization, and sample persistence.
package ingest

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/norm/odyssey-ingest/internal/config"
	"github.com/norm/odyssey-ingest/internal/diag"
	"github.com/norm/odyssey-ingest/internal/episode"
	"github.com/norm/odyssey-ingest/internal/sink"
	"github.com/norm/odyssey-ingest/internal/split"
)

// Runner converts the configured splits of one dataset.
type Runner struct {
	cfg    *config.Config
	events *diag.EventLog
	norm   *episode.Normalizer
}

// SplitResult reports one split's conversion outcome.
type SplitResult struct {
	Split      string
	Episodes   int // episodes converted
	Failed     int // episodes aborted by decode or step errors
	Samples    int // annotation samples written
	OutputPath string
}

// New creates a runner. events may be nil.
func New(cfg *config.Config, events *diag.EventLog) *Runner {
	return &Runner{
		cfg:    cfg,
		events: events,
		norm: &episode.Normalizer{
			ScreenshotPath:   cfg.ScreenshotPath,
			ScreenshotExists: fileExists,
			Events:           events,
		},
	}
}

// SetScreenshotExists overrides the storage layer's screenshot predicate.
func (r *Runner) SetScreenshotExists(exists func(path string) bool) {
	r.norm.ScreenshotExists = exists
}

// Run converts each named split in order. A failure is confined to its
// smallest enclosing unit: an unknown split name skips that split, a bad
// episode skips that episode. The joined per-split errors are returned
// alongside the results for the splits that ran.
func (r *Runner) Run(ctx context.Context, splits []string) ([]SplitResult, error) {
	manifest, err := split.Load(r.cfg.SplitFilePath())
	if err != nil {
		return nil, err
	}

	var results []SplitResult
	var errs []error

	for _, name := range splits {
		files, err := manifest.Resolve(name, r.cfg.LimitEpisodes)
		if err != nil {
			log.Printf("warning: %v (skipping split)", err)
			r.logEvent(diag.NewEvent(diag.EventTypeSplitFailed, "").
				WithSplit(name).WithError(err.Error()))
			errs = append(errs, err)
			continue
		}

		res := SplitResult{Split: name}
		writer := sink.NewWriter(r.cfg.OutputDir, name)
		res.OutputPath = writer.Path()

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			count, err := r.IngestFile(r.cfg.AnnotationPath(file), writer)
			if err != nil {
				log.Printf("warning: episode %s: %v (skipping episode)", file, err)
				r.logEvent(diag.NewEvent(diag.EventTypeEpisodeFailed, "").
					WithSplit(name).WithPath(file).WithError(err.Error()))
				res.Failed++
				continue
			}
			res.Episodes++
			res.Samples += count
		}

		r.logEvent(diag.NewEvent(diag.EventTypeSplitDone, "").
			WithSplit(name).WithCount(res.Samples))
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

// IngestFile normalizes one episode annotation file and writes its samples.
// Used by both batch conversion and watch mode.
func (r *Runner) IngestFile(path string, writer *sink.Writer) (int, error) {
	doc, err := episode.Load(path)
	if err != nil {
		return 0, err
	}
	anns, err := r.norm.Normalize(doc)
	if err != nil {
		return 0, err
	}
	for _, ann := range anns {
		if err := writer.Write(ann); err != nil {
			return 0, err
		}
	}
	r.logEvent(diag.NewEvent(diag.EventTypeEpisodeDone, doc.EpisodeID).
		WithPath(path).WithCount(len(anns)))
	return len(anns), nil
}

func (r *Runner) logEvent(evt diag.Event) {
	if r.events == nil {
		return
	}
	if err := r.events.Log(evt); err != nil {
		log.Printf("warning: diag log: %v", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
