package progressbar

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	bar := render(1, 4, 8, 1500*time.Millisecond)
	assert.True(t, strings.HasPrefix(bar, "|██      |"), bar)
	assert.Contains(t, bar, "[25.00% | elapsed: 1s]")

	assert.Contains(t, render(0, 0, 4, 0), "100.00%")
}

func TestManualProgressBar(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewManualProgressBar(buf, 10, 2)

	p.Increment()
	p.Display()
	assert.Contains(t, buf.String(), "50.00%")

	p.Increment()
	p.Increment()
	p.Display()
	assert.Contains(t, buf.String(), "100.00%")
	assert.NotContains(t, buf.String(), "150.00%")

	p.Set(3, 12)
	p.Display()
	assert.Contains(t, buf.String(), "25.00%")
}

func TestProgressBar(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgressBar(buf, 10, 100, time.Millisecond)
	p.Display()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 30; j++ {
				p.Increment()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, p.Progress())

	p.Close()
	p.Close()
	p.Wait()
	assert.Contains(t, buf.String(), "100.00%")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}
