package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/atlasgen/internal/config"
	"github.com/dgallion1/atlasgen/internal/render"
	"github.com/dgallion1/atlasgen/internal/source"
)

type worker struct {
	cfg      config.Config
	exporter *render.HTMLExporter
	sinks    []Sink
	log      *slog.Logger
	backoff  func(attempt int) time.Duration
}

// process runs one build: load, build, write, deliver.
func (w *worker) process(ctx context.Context, run *Run, metrics *Metrics) (*Output, error) {
	log := w.log.With("build_id", run.ID, "reason", run.Reason)

	// Phase 1: Load
	run.SetStatus(StatusLoading, "loading")
	snap, err := source.Load(w.cfg.InputGlob)
	if err != nil {
		return nil, w.fail(log, run, "loading", fmt.Errorf("load records: %w", err))
	}
	log.Info("records loaded", "files", len(snap.Files), "records", len(snap.Records))

	// Phase 2: Build
	run.SetStatus(StatusBuilding, "building")
	out, err := Build(snap, run.ID)
	if err != nil {
		return nil, w.fail(log, run, "building", err)
	}
	run.setNodes(out.Counts.Total)
	log.Info("tree built", "roots", len(out.Roots), "nodes", out.Counts.Total, "duration_ms", out.Duration.Milliseconds())

	// Phase 3: Write
	run.SetStatus(StatusWriting, "writing")
	arts, err := Artifacts(out, w.exporter, w.cfg.DocumentTitle)
	if err != nil {
		return nil, w.fail(log, run, "writing", err)
	}
	if err := WriteDir(w.cfg.OutputPath, arts); err != nil {
		return nil, w.fail(log, run, "writing", err)
	}
	log.Info("outputs written", "dir", w.cfg.OutputPath, "files", len(arts))

	// Phase 4: Deliver
	if len(w.sinks) == 0 {
		run.SetStatus(StatusCompleted, "done")
		return out, nil
	}
	run.SetStatus(StatusDelivering, "delivering")
	failed := 0
	for _, s := range w.sinks {
		err := w.deliver(ctx, log, s, out, arts)
		metrics.observeDelivery(s.Name(), err)
		if err != nil {
			log.Error("delivery failed", "sink", s.Name(), "error", err)
			run.AddError(fmt.Sprintf("%s: %s", s.Name(), err))
			failed++
			continue
		}
		run.addDelivered(s.Name())
	}

	if failed > 0 {
		run.SetStatus(StatusPartial, "done")
	} else {
		run.SetStatus(StatusCompleted, "done")
	}
	return out, nil
}

// deliver hands the artifacts to one sink, retrying retryable failures.
func (w *worker) deliver(ctx context.Context, log *slog.Logger, s Sink, out *Output, arts []Artifact) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = s.Deliver(ctx, out, arts)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable delivery error", "sink", s.Name(), "attempt", attempt, "error", lastErr)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func (w *worker) fail(log *slog.Logger, run *Run, phase string, err error) error {
	log.Error("build failed", "phase", phase, "error", err)
	run.AddError(err.Error())
	run.SetStatus(StatusFailed, phase)
	return err
}
