package progressbar

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressBar implements a concurrent progress bar. The bar is redrawn
// in a separate goroutine every update interval, so that the elapsed
// time keeps moving between increments. All methods are safe for
// concurrent use.
type ProgressBar struct {
	out         io.Writer
	width       float64
	maxProgress float64
	updateEvery time.Duration

	mu              sync.Mutex
	currentProgress float64
	startTime       time.Time

	closeEvent chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

// NewProgressBar returns a new progress bar that is width characters
// wide and reaches 100% capacity after max Increment() calls.
func NewProgressBar(out io.Writer, width, max int,
	updateEvery time.Duration) *ProgressBar {
	return &ProgressBar{
		out:         out,
		width:       float64(width),
		maxProgress: float64(max),
		updateEvery: updateEvery,
		startTime:   time.Now(),
		closeEvent:  make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Progress returns the number of increments so far
func (p *ProgressBar) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.currentProgress)
}

// Display starts redrawing the progress bar. It should only be called
// once.
func (p *ProgressBar) Display() {
	go func() {
		defer close(p.done)

		tick := time.NewTicker(p.updateEvery)
		defer tick.Stop()

		for {
			select {
			case <-tick.C:
				p.draw()
			case <-p.closeEvent:
				p.draw()
				fmt.Fprintln(p.out) // Jump to next line after printed bar
				return
			}
		}
	}()
}

// Close stops redrawing the progress bar after a final redraw
func (p *ProgressBar) Close() {
	p.closeOnce.Do(func() { close(p.closeEvent) })
}

// Wait blocks until a displayed bar has been closed
func (p *ProgressBar) Wait() {
	<-p.done
}

func (p *ProgressBar) draw() {
	p.mu.Lock()
	bar := render(p.currentProgress, p.maxProgress, p.width,
		time.Since(p.startTime))
	p.mu.Unlock()

	fmt.Fprintf(p.out, "\r\033[K%v", bar)
}
