package render

import (
	"strings"
	"sync"
)

// DefaultColors is the category color cycle.
var DefaultColors = []string{
	"#2986E2", "#DC3912", "#f88508", "#109618", "#990099",
	"#0099c6", "#dd4477", "#66aa00", "#b82e2e", "#316395",
	"#994499", "#22aa99", "#aaaa11", "#6633cc", "#e67300",
}

// Palette hands out colors per category. Overrides win; everything else
// takes the next color of the cycle on first sight and keeps it.
type Palette struct {
	mu        sync.Mutex
	overrides map[string]string
	assigned  map[string]string
	next      int
}

func NewPalette(overrides map[string]string) *Palette {
	p := &Palette{
		overrides: make(map[string]string, len(overrides)),
		assigned:  make(map[string]string),
	}
	for k, v := range overrides {
		if v = strings.TrimSpace(v); v != "" {
			p.overrides[k] = v
		}
	}
	return p
}

// Color returns the fill for category.
func (p *Palette) Color(category string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.overrides[category]; ok {
		return c
	}
	if c, ok := p.assigned[category]; ok {
		return c
	}
	c := DefaultColors[p.next%len(DefaultColors)]
	p.next++
	p.assigned[category] = c
	return c
}
