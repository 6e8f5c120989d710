package bgraph

import (
	"fmt"

	"github.com/gilchrisn/graph-mapping-service/pkg/gain"
)

const (
	fmHashPrime   = 17
	fmHashMinSize = 32
	fmNoSlot      = -1
)

// fmVertex is the extended state of a vertex touched by the FM refiner.
type fmVertex struct {
	gain.Link
	vert     int
	part     uint8
	compgain int // change of compload0 if moved
	commgain int // change of commload if moved
	commcut  int // number of arcs to the other part
	mswpnum  int // undo epoch of the last saved state
}

// fmTable stores extended vertices in a dense arena indexed by an
// open-addressing table of arena positions. Arena positions never change,
// so they are used as handles by the gain table and the undo log.
type fmTable struct {
	recs  []fmVertex
	slots []int32
	mask  int
}

func newFMTable(expected int) *fmTable {
	size := fmHashMinSize
	for size < 4*expected {
		size <<= 1
	}
	t := &fmTable{
		recs:  make([]fmVertex, 0, expected),
		slots: make([]int32, size),
		mask:  size - 1,
	}
	for i := range t.slots {
		t.slots[i] = fmNoSlot
	}
	return t
}

// Link implements gain.Arena.
func (t *fmTable) Link(h int) *gain.Link { return &t.recs[h].Link }

func (t *fmTable) len() int { return len(t.recs) }

// find returns the handle of the record of v, or -1.
func (t *fmTable) find(v int) int {
	for i := (v * fmHashPrime) & t.mask; ; i = (i + 1) & t.mask {
		h := t.slots[i]
		if h == fmNoSlot {
			return -1
		}
		if t.recs[h].vert == v {
			return int(h)
		}
	}
}

// insert appends a record for a vertex that has none and returns its handle.
func (t *fmTable) insert(rec fmVertex) (int, error) {
	if len(t.recs) >= gain.MaxHandle {
		return -1, fmt.Errorf("%w: extended vertex table full (%d records)", ErrAllocation, len(t.recs))
	}
	if 4*(len(t.recs)+1) > len(t.slots) {
		if err := t.grow(); err != nil {
			return -1, err
		}
	}
	h := len(t.recs)
	t.recs = append(t.recs, rec)
	t.place(rec.vert, h)
	return h, nil
}

func (t *fmTable) place(v, h int) {
	i := (v * fmHashPrime) & t.mask
	for t.slots[i] != fmNoSlot {
		i = (i + 1) & t.mask
	}
	t.slots[i] = int32(h)
}

// grow doubles the index table. Handles are unaffected.
func (t *fmTable) grow() error {
	size := 2 * len(t.slots)
	if size <= 0 || size/4 > gain.MaxHandle+1 {
		return fmt.Errorf("%w: cannot grow extended vertex table beyond %d slots", ErrAllocation, len(t.slots))
	}
	t.slots = make([]int32, size)
	t.mask = size - 1
	for i := range t.slots {
		t.slots[i] = fmNoSlot
	}
	for h := range t.recs {
		t.place(t.recs[h].vert, h)
	}
	return nil
}
