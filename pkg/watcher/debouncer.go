package watcher

import (
	"context"
	"time"

	"github.com/cdaps/hidef/pkg/logging"
)

// Debouncer batches rapid file change events so a burst of writes triggers a
// single pipeline re-run: an event is released once the input has been quiet
// for quietPeriod, or after maxWait if writes never settle.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Events returns the debounced event channel.
func (d *Debouncer) Events() <-chan ChangeEvent {
	return d.output
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		pending  *ChangeEvent
		quiet    <-chan time.Time
		deadline <-chan time.Time
	)

	flush := func() {
		if pending == nil {
			return
		}
		logging.Debug("flushing change event", "path", pending.Path)
		d.output <- *pending
		pending = nil
		quiet = nil
		deadline = nil
	}

	for {
		select {
		case <-ctx.Done():
			close(d.output)
			return
		case ev, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			if pending == nil {
				deadline = time.After(d.maxWait)
			}
			pending = &ev
			quiet = time.After(d.quietPeriod)
		case <-quiet:
			flush()
		case <-deadline:
			flush()
		}
	}
}
