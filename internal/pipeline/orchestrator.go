package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/atlasgen/internal/config"
	"github.com/dgallion1/atlasgen/internal/render"
)

// Sink receives the artifacts of every successful build.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, out *Output, arts []Artifact) error
}

// Orchestrator serializes build runs and keeps the latest good output.
type Orchestrator struct {
	runs    *RunStore
	queue   chan *Run
	worker  *worker
	metrics *Metrics
	stats   *BuildStats
	log     *slog.Logger
	cfg     config.Config

	current atomic.Pointer[Output]
	// mu serializes runs between the queue worker and RunNow.
	mu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. metrics may be nil.
func NewOrchestrator(cfg config.Config, metrics *Metrics, log *slog.Logger, sinks ...Sink) *Orchestrator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Orchestrator{
		runs:    NewRunStore(cfg.RunTTL),
		queue:   make(chan *Run, cfg.MaxQueueSize),
		metrics: metrics,
		stats:   NewBuildStats(time.Hour),
		log:     log,
		cfg:     cfg,
		worker: &worker{
			cfg:      cfg,
			exporter: render.NewHTMLExporter(),
			sinks:    sinks,
			log:      log,
			backoff:  Backoff,
		},
	}
}

// Start launches the build worker and the run cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case run := <-o.queue:
				o.execute(workerCtx, run)
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case now := <-ticker.C:
				if n := o.runs.Cleanup(now); n > 0 {
					o.log.Debug("evicted finished runs", "count", n)
				}
			}
		}
	}()
}

// Stop cancels in-flight work and waits for the background loops to exit.
// Runs still queued are marked failed.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	for {
		select {
		case run := <-o.queue:
			run.AddError("pipeline stopped")
			run.SetStatus(StatusFailed, "queued")
		default:
			return
		}
	}
}

// Submit queues a rebuild.
func (o *Orchestrator) Submit(reason string) (*Run, error) {
	run := NewRun(reason)
	o.runs.Put(run)
	select {
	case o.queue <- run:
		o.log.Info("build queued", "run_id", run.ID, "reason", reason)
		return run, nil
	default:
		run.AddError("queue_full")
		run.SetStatus(StatusFailed, "queued")
		return run, fmt.Errorf("build queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// RunNow executes a build synchronously. The returned error is set when the
// build itself failed; sink failures only mark the run partial.
func (o *Orchestrator) RunNow(ctx context.Context, reason string) (*Run, *Output, error) {
	run := NewRun(reason)
	o.runs.Put(run)
	out, err := o.execute(ctx, run)
	return run, out, err
}

func (o *Orchestrator) execute(ctx context.Context, run *Run) (*Output, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	out, err := o.worker.process(ctx, run, o.metrics)
	snap := run.Snapshot()
	var dur time.Duration
	if out != nil {
		dur = out.Duration
	} else {
		dur = time.Since(snap.CreatedAt)
	}
	o.stats.Record(dur, err != nil)
	o.metrics.observeBuild(snap.Status, out)
	if err != nil {
		return nil, err
	}
	o.current.Store(out)
	return out, nil
}

// Current returns the output of the latest successful build, or nil.
func (o *Orchestrator) Current() *Output {
	return o.current.Load()
}

func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
