// Package harness turns user source plus one test input into the exact
// program submitted for execution.
package harness

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/codecraft/internal/domain"
)

// Track separates languages whose results need simulator-specific handling
type Track string

const (
	TrackGeneral  Track = "general"
	TrackHardware Track = "hardware"
)

// TrackFor returns the track a language belongs to
func TrackFor(language string) Track {
	if language == "verilog" {
		return TrackHardware
	}
	return TrackGeneral
}

// Rewriter selects and renders drivers. Lesson harnesses are compiled once
// and cached by template text.
type Rewriter struct {
	mu    sync.Mutex
	cache map[string]*Driver
}

// NewRewriter creates a new rewriter
func NewRewriter() *Rewriter {
	return &Rewriter{cache: make(map[string]*Driver)}
}

// Rewrite produces the program to submit for one test case. A lesson harness
// takes precedence when its match condition holds; otherwise the built-in
// drivers for the language are consulted in order.
func (r *Rewriter) Rewrite(language, source, input string, h *domain.Harness) (string, error) {
	if h != nil {
		d, err := r.compiled(*h)
		if err != nil {
			return "", err
		}
		if d.Matches(source) {
			return d.Render(source, input)
		}
	}

	switch language {
	case "python":
		for _, d := range pythonDrivers {
			if d.Matches(source) {
				return d.Render(source, input)
			}
		}
		return source, nil
	case "verilog":
		for _, d := range verilogDrivers {
			if d.Matches(source) {
				return d.Render(source, input)
			}
		}
		return genericTestbench.Render(source, input)
	default:
		return source, nil
	}
}

// DriverFor names the built-in driver that would handle source, or "" when
// the source is submitted unchanged.
func DriverFor(language, source string) string {
	var drivers []*Driver
	switch language {
	case "python":
		drivers = pythonDrivers
	case "verilog":
		drivers = verilogDrivers
	}
	for _, d := range drivers {
		if d.Matches(source) {
			return d.Name
		}
	}
	if language == "verilog" {
		return genericTestbench.Name
	}
	return ""
}

func (r *Rewriter) compiled(h domain.Harness) (*Driver, error) {
	key := h.Match + "\x00" + h.Template

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.cache[key]; ok {
		return d, nil
	}
	d, err := Compile(fmt.Sprintf("lesson-%d", len(r.cache)), h)
	if err != nil {
		return nil, err
	}
	r.cache[key] = d
	return d, nil
}
