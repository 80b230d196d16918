// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package progress draws a progress bar for work counted by an atomic counter.
//
// The workers only ever add to the counter. A separate goroutine samples it
// and redraws the bar, so work never waits for the terminal.
package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

const width = 30

type Bar struct {
	w     io.Writer
	pb    *progressbar.ProgressBar
	done  atomic.Int64
	total atomic.Int64
	start time.Time

	quit    chan struct{}
	stopped chan struct{}
}

func New(w io.Writer, label string) *Bar {
	return &Bar{
		w: w,
		pb: progressbar.NewOptions64(1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWidth(width),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(0),
		),
	}
}

// Counter is what the workers add to.
func (b *Bar) Counter() *atomic.Int64 { return &b.done }

// AddTotal grows the amount of work expected, for when sizes are only
// discovered once work is under way.
func (b *Bar) AddTotal(n int64) { b.total.Add(n) }

// Start draws the bar at once and then every interval until [Bar.Stop].
func (b *Bar) Start(interval time.Duration) {
	b.start = time.Now()
	b.quit = make(chan struct{})
	b.stopped = make(chan struct{})
	b.sync(false)
	b.pb.RenderBlank()
	go func() {
		defer close(b.stopped)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-b.quit:
				return
			case <-t.C:
				b.sync(false)
			}
		}
	}()
}

// Stop halts the reporter, draws the bar a final time with the elapsed time,
// and returns the elapsed time.
func (b *Bar) Stop() time.Duration {
	if b.quit == nil {
		return 0
	}
	close(b.quit)
	<-b.stopped
	b.sync(true)
	elapsed := time.Since(b.start)
	fmt.Fprintf(b.w, " %s\n", elapsed.Round(time.Millisecond))
	b.quit = nil
	return elapsed
}

// sync copies the counters into the drawn bar. Until the final draw the bar
// stops one short of its total, because the total may still grow and a full
// bar is finished for good.
func (b *Bar) sync(final bool) {
	total := b.total.Load()
	done := b.done.Load()
	if final && total <= 0 {
		total, done = 1, 1
	}
	total = max(total, 1)
	if !final {
		done = min(done, total-1)
	}
	b.pb.ChangeMax64(total)
	b.pb.Set64(min(done, total))
}
