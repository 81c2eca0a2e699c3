package journey

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/portfolio-qa/portfolio-e2e/pkg/browser"
)

// OpenFunc opens a fresh session named after the journey it will host.
type OpenFunc func(name string) (browser.Session, error)

// Result is the outcome of one journey run.
type Result struct {
	Journey  string
	Duration time.Duration
	Err      error
}

// Passed reports whether the journey succeeded.
func (r Result) Passed() bool { return r.Err == nil }

// Runner runs journeys, each in its own session.
type Runner struct {
	open OpenFunc
	opts Options
	log  logrus.FieldLogger
}

// NewRunner returns a runner opening sessions with open.
func NewRunner(open OpenFunc, opts Options, log logrus.FieldLogger) *Runner {
	return &Runner{open: open, opts: opts, log: log}
}

// Run opens a session, runs j, and closes the session. A close failure is
// reported only when the journey itself passed.
func (r *Runner) Run(ctx context.Context, j Journey) Result {
	start := time.Now()
	res := Result{Journey: j.Name}

	session, err := r.open(j.Name)
	if err != nil {
		res.Err = fmt.Errorf("failed to open session for %s: %w", j.Name, err)
		res.Duration = time.Since(start)
		r.report(res)
		return res
	}

	res.Err = j.Run(ctx, session.Page(), r.opts)
	if cerr := session.Close(); cerr != nil && res.Err == nil {
		res.Err = fmt.Errorf("failed to close session for %s: %w", j.Name, cerr)
	}
	res.Duration = time.Since(start)
	r.report(res)
	return res
}

// RunAll runs js in order and stops early only when ctx is done.
func (r *Runner) RunAll(ctx context.Context, js []Journey) []Result {
	results := make([]Result, 0, len(js))
	for _, j := range js {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.Run(ctx, j))
	}
	return results
}

func (r *Runner) report(res Result) {
	entry := r.log.WithFields(logrus.Fields{
		"journey":  res.Journey,
		"duration": res.Duration.Round(time.Millisecond),
	})
	if res.Err != nil {
		entry.WithError(res.Err).Error("journey failed")
		return
	}
	entry.Info("journey passed")
}

// Failed counts failing results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed() {
			n++
		}
	}
	return n
}
