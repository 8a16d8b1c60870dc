package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// ProgressBar renders a single-line progress indicator for operation counts.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	mu      sync.Mutex
}

// NewProgressBar creates a progress bar writing to w. A total of zero or
// less shows a running count instead of a bar.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
	}
}

// Set moves the bar to current and appends the given suffix, typically a rate.
func (p *ProgressBar) Set(current int64, suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.render(suffix)
}

// Finish draws the final state and ends the line.
func (p *ProgressBar) Finish(suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		p.current = p.total
	}
	p.render(suffix)
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render(suffix string) {
	if suffix != "" {
		suffix = " " + suffix
	}
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %s%s", p.title, humanize.Comma(p.current), suffix)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(p.width) * percent)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", p.width-filled)

	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% (%s/%s)%s",
		p.title,
		bar,
		percent*100,
		humanize.Comma(p.current),
		humanize.Comma(p.total),
		suffix,
	)
}
