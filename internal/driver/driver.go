// Package driver fans a batch of exposure manifests out to an external
// single-exposure simulator and reports per-exposure outcomes.
package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/altair/internal/models"
	"github.com/starford/altair/internal/storage"
)

// Status tracks one exposure through the batch.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the exposure reached a final state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Result is the outcome of one exposure simulation attempt.
type Result struct {
	Exposure    string  `json:"exposure"`
	Manifest    string  `json:"manifest"`
	Status      Status  `json:"status"`
	DurationSec float64 `json:"duration_sec,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Report summarizes a driver run.
type Report struct {
	RunID     string    `json:"run_id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Workers   int       `json:"workers"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Pending   int       `json:"pending"`
	Results   []Result  `json:"results"`
}

// Options configure a Driver.
type Options struct {
	Workers int
	Logger  *slog.Logger
}

// Driver runs manifests through a Simulator with bounded parallelism.
type Driver struct {
	sim     Simulator
	workers int
	logger  *slog.Logger
}

func New(sim Simulator, opts Options) *Driver {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Driver{sim: sim, workers: opts.Workers, logger: opts.Logger}
}

// Run simulates every manifest and always returns a complete report. A
// failed simulation is recorded in its result slot and never aborts the
// batch. Cancelling ctx abandons in-flight work; manifests that never
// started stay pending.
func (d *Driver) Run(ctx context.Context, manifests []models.ExposureManifest) Report {
	rep := Report{
		RunID:   uuid.New().String(),
		Started: time.Now().UTC(),
		Workers: d.workers,
		Results: make([]Result, len(manifests)),
	}
	for i, m := range manifests {
		rep.Results[i] = Result{Exposure: m.Exposure.ID, Manifest: m.FilePath, Status: StatusPending}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i := range manifests {
		i := i // per-iteration copy; required under go < 1.22
		// Each goroutine owns exactly one result slot.
		g.Go(func() error {
			res := &rep.Results[i]
			if ctx.Err() != nil {
				return nil
			}
			res.Status = StatusRunning
			d.logger.Info("simulating exposure",
				slog.String("exposure", res.Exposure),
				slog.String("manifest", res.Manifest))

			start := time.Now()
			err := d.sim.Simulate(ctx, manifests[i])
			res.DurationSec = time.Since(start).Seconds()

			if err != nil {
				res.Status = StatusFailed
				res.Error = err.Error()
				d.logger.Warn("simulation failed",
					slog.String("exposure", res.Exposure),
					slog.String("error", err.Error()))
				return nil
			}
			res.Status = StatusSucceeded
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck

	rep.Finished = time.Now().UTC()
	for _, r := range rep.Results {
		switch r.Status {
		case StatusSucceeded:
			rep.Succeeded++
		case StatusFailed:
			rep.Failed++
		default:
			rep.Pending++
		}
	}
	d.logger.Info("batch finished",
		slog.String("run_id", rep.RunID),
		slog.Int("succeeded", rep.Succeeded),
		slog.Int("failed", rep.Failed),
		slog.Int("pending", rep.Pending))
	return rep
}

// WriteReport persists the report as JSON under reports/ and returns the
// workspace-relative path.
func WriteReport(ws *storage.Workspace, rep Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	rel := fmt.Sprintf("%s/run-%s.json", storage.ReportDir, rep.RunID)
	if err := ws.Write(rel, data); err != nil {
		return "", err
	}
	return rel, nil
}
