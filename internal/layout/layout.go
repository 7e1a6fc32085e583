package layout

import (
	"fmt"
	"strings"
)

// Edge names one side of the monitor.
type Edge string

const (
	Top    Edge = "top"
	Right  Edge = "right"
	Bottom Edge = "bottom"
	Left   Edge = "left"
)

// Edges lists every edge in a fixed order.
var Edges = []Edge{Top, Right, Bottom, Left}

// Horizontal reports whether the edge's principal axis is x.
func (e Edge) Horizontal() bool { return e == Top || e == Bottom }

func (e Edge) Valid() bool {
	switch e {
	case Top, Right, Bottom, Left:
		return true
	}
	return false
}

// ParseEdge accepts the edge name in any case.
func ParseEdge(s string) (Edge, error) {
	e := Edge(strings.ToLower(strings.TrimSpace(s)))
	if !e.Valid() {
		return "", fmt.Errorf("unknown edge %q", s)
	}
	return e, nil
}

// Range is a contiguous block of the global LED index space.
type Range struct {
	Start int
	Count int
}

// End is one past the last index.
func (r Range) End() int { return r.Start + r.Count }

// Layout maps each edge onto its slice of the strip. The strip is wired as one
// chain that visits the edges in Order.
type Layout struct {
	Order    []Edge
	Counts   map[Edge]int
	Reversed map[Edge]bool // wiring runs against the principal axis

	ranges map[Edge]Range
	total  int
}

// New builds a Layout. Every edge must appear exactly once in order and carry
// a positive count.
func New(order []Edge, counts map[Edge]int, reversed map[Edge]bool) (Layout, error) {
	if len(order) != len(Edges) {
		return Layout{}, fmt.Errorf("edge order must name %d edges, got %d", len(Edges), len(order))
	}
	l := Layout{
		Order:    append([]Edge(nil), order...),
		Counts:   map[Edge]int{},
		Reversed: map[Edge]bool{},
		ranges:   map[Edge]Range{},
	}
	start := 0
	for _, e := range order {
		if !e.Valid() {
			return Layout{}, fmt.Errorf("unknown edge %q", e)
		}
		if _, dup := l.ranges[e]; dup {
			return Layout{}, fmt.Errorf("edge %s listed twice", e)
		}
		n := counts[e]
		if n <= 0 {
			return Layout{}, fmt.Errorf("edge %s: led count must be positive, got %d", e, n)
		}
		l.Counts[e] = n
		l.Reversed[e] = reversed[e]
		l.ranges[e] = Range{Start: start, Count: n}
		start += n
	}
	l.total = start
	return l, nil
}

// Range returns the index block for e.
func (l Layout) Range(e Edge) Range { return l.ranges[e] }

// Index maps the i-th LED of edge e (in strip order) to a global index.
func (l Layout) Index(e Edge, i int) int {
	return l.ranges[e].Start + i
}

// Count is the total number of LEDs on the strip.
func (l Layout) Count() int { return l.total }
