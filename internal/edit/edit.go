package edit

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlap is returned when two edits in a plan claim intersecting byte ranges.
var ErrOverlap = errors.New("overlapping edits")

// Edit replaces the half-open byte range [Start, End) of a buffer with Text.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

func (e Edit) Empty() bool {
	return e.Start == e.End && e.Text == ""
}

func (e Edit) String() string {
	return fmt.Sprintf("%d-%d %q", e.Start, e.End, e.Text)
}

// Plan accumulates edits against a single immutable buffer.
// The zero value is ready to use.
type Plan struct {
	edits []Edit
}

// Add appends an edit to the plan. Ranges are validated at Apply time,
// not here, so callers can build plans in source order.
func (p *Plan) Add(start, end uint32, text string) {
	p.edits = append(p.edits, Edit{Start: start, End: end, Text: text})
}

// Len returns the number of edits in the plan.
func (p *Plan) Len() int { return len(p.edits) }

// Apply splices every edit into src and returns the rewritten buffer.
// The input buffer is never mutated. Edits are applied sorted by
// descending start offset so earlier offsets stay valid while later
// ranges are spliced. Overlapping ranges are a caller bug and produce
// ErrOverlap rather than silent corruption.
func (p *Plan) Apply(src []byte) ([]byte, error) {
	if len(p.edits) == 0 {
		return src, nil
	}
	edits := append([]Edit(nil), p.edits...)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Start == edits[j].Start {
			return edits[i].End > edits[j].End
		}
		return edits[i].Start > edits[j].Start
	})
	for i, e := range edits {
		if e.End < e.Start || int(e.End) > len(src) {
			return nil, fmt.Errorf("edit %s out of range (len %d)", e, len(src))
		}
		// edits сортированы по убыванию Start, поэтому достаточно
		// сравнить с соседом.
		if i+1 < len(edits) && edits[i+1].End > e.Start {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, edits[i+1], e)
		}
	}
	out := append([]byte(nil), src...)
	for _, e := range edits {
		suffix := append([]byte(nil), out[e.End:]...)
		out = append(append(out[:e.Start], []byte(e.Text)...), suffix...)
	}
	return out, nil
}
