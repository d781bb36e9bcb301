package poll

import (
	"context"
	"math"
	"time"

	"videothingy/models"
)

// Export polling defaults. 300 one-second attempts match the worker's own
// five minute budget.
const (
	ExportInterval    = time.Second
	ExportMaxAttempts = 300
	FreshnessWindow   = 5 * time.Minute
)

// ProjectFetcher reads the current project record.
type ProjectFetcher interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
}

// WatchOptions configure WatchExport. Zero values take the defaults above.
type WatchOptions struct {
	Interval    time.Duration
	MaxAttempts int
	Window      time.Duration

	// ExportID, when set, only accepts a descriptor written by that attempt.
	ExportID string

	// Progress receives a cosmetic completion estimate in percent.
	Progress func(percent float64)

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// IsFresh reports whether d is a usable result descriptor no older than
// window at now.
func IsFresh(d *models.ExportData, now time.Time, window time.Duration) bool {
	if d == nil || d.DownloadURL == "" || d.ExportedAt.IsZero() {
		return false
	}
	return now.Sub(d.ExportedAt) < window
}

// EstimateProgress maps an attempt onto the 20..80 percent band.
func EstimateProgress(attempt, maxAttempts int) float64 {
	if maxAttempts <= 0 {
		return 80
	}
	return math.Min(20+float64(attempt)/float64(maxAttempts)*60, 80)
}

// WatchExport polls the project until it carries a fresh export result and
// returns it. It returns ErrTimeout when the attempt budget is exhausted.
// Cancelling ctx stops the wait without affecting the export itself.
func WatchExport(ctx context.Context, f ProjectFetcher, projectID string, opts WatchOptions) (*models.ExportData, error) {
	if opts.Interval == 0 {
		opts.Interval = ExportInterval
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = ExportMaxAttempts
	}
	if opts.Window == 0 {
		opts.Window = FreshnessWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	retry := Options{
		Interval:    opts.Interval,
		MaxAttempts: opts.MaxAttempts,
		Sleep:       opts.Sleep,
	}
	if opts.Progress != nil {
		retry.OnAttempt = func(attempt, total int) {
			opts.Progress(EstimateProgress(attempt, total))
		}
	}

	fetch := func(ctx context.Context) (*models.ExportData, error) {
		p, err := f.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		data, err := p.DecodeExportData()
		if err != nil {
			// A half-written or foreign blob is treated as no result yet.
			return nil, nil
		}
		return data, nil
	}

	accept := func(d *models.ExportData) bool {
		if !IsFresh(d, opts.Now(), opts.Window) {
			return false
		}
		return opts.ExportID == "" || d.ExportID == opts.ExportID
	}

	return Retry(ctx, retry, fetch, accept)
}
