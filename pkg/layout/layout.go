// Package layout implements the fixed storage layout: a monotone variable
// id space resolved to byte offsets by prefix-summing declared widths,
// grounded on the original implementation's FixedLayout.var_index.
package layout

import "fmt"

// Layout maps a contiguous range of variable ids, starting at FirstID, to
// byte offsets within an account's storage blob.
type Layout struct {
	firstID uint32
	widths  []uint32
	offsets []uint32
}

// New builds a Layout from an ordered list of variable widths, starting at
// firstID. Returns an error if any width is zero.
func New(firstID uint32, widths []uint32) (*Layout, error) {
	if len(widths) == 0 {
		return nil, fmt.Errorf("layout: must declare at least one variable")
	}
	offsets := make([]uint32, len(widths))
	var off uint32
	for i, w := range widths {
		if w == 0 {
			return nil, fmt.Errorf("layout: variable %d has zero width", firstID+uint32(i))
		}
		offsets[i] = off
		off += w
	}
	cp := make([]uint32, len(widths))
	copy(cp, widths)
	return &Layout{firstID: firstID, widths: cp, offsets: offsets}, nil
}

// FirstID returns the lowest declared variable id.
func (l *Layout) FirstID() uint32 { return l.firstID }

// Len returns the number of declared variables.
func (l *Layout) Len() int { return len(l.widths) }

// TotalSize returns the total byte size spanned by all declared variables.
func (l *Layout) TotalSize() uint32 {
	if len(l.widths) == 0 {
		return 0
	}
	return l.offsets[len(l.offsets)-1] + l.widths[len(l.widths)-1]
}

func (l *Layout) index(id uint32) int {
	if id < l.firstID {
		panic(fmt.Sprintf("layout: variable id %d below first id %d", id, l.firstID))
	}
	idx := int(id - l.firstID)
	if idx >= len(l.widths) {
		panic(fmt.Sprintf("layout: variable id %d out of declared range", id))
	}
	return idx
}

// Resolve returns the (offset, length) in bytes of variable id. Panics if
// id falls outside the declared range, matching the authoritative
// reference implementation's assertion-based bounds checking.
func (l *Layout) Resolve(id uint32) (offset, length uint32) {
	idx := l.index(id)
	return l.offsets[idx], l.widths[idx]
}

// Widths returns a copy of the declared variable widths.
func (l *Layout) Widths() []uint32 {
	cp := make([]uint32, len(l.widths))
	copy(cp, l.widths)
	return cp
}
