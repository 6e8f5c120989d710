// Package gain implements a bucket priority structure keyed by integer gain.
//
// Links are embedded in records owned by the caller and are addressed by
// integer handles, so the caller may grow its record storage while records
// are linked. Lower gains come out first.
package gain

import (
	"math"
	"math/bits"
)

// MaxHandle is the largest record handle a table can link.
const MaxHandle = math.MaxInt32 - 1

// DefaultLinear is the default half-width of the linear bucket region.
const DefaultLinear = 1023

const none = -1

// State tells whether a record takes part in the search.
type State uint8

const (
	Free   State = iota // not linked, may be linked
	Used                // locked, must not be linked again in this pass
	Linked              // present in a bucket
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Used:
		return "used"
	case Linked:
		return "linked"
	}
	return "unknown"
}

// Link is the intrusive part of a record. Its zero value is a free link.
type Link struct {
	prev   int32
	next   int32
	bucket int32
	Gain   int
	State  State
}

// Arena gives access to the link of the record with a given handle. The
// returned pointer is only used for the duration of one table operation.
type Arena interface {
	Link(h int) *Link
}

// Table is an array of buckets. Gains whose magnitude does not exceed the
// linear bound each have their own bucket; larger magnitudes share one
// bucket per bit length, so ordering is only approximate at the extremes.
type Table struct {
	arena  Arena
	heads  []int32
	linear int
	offset int
	tmin   int // no bucket below tmin is populated
	tmax   int // no bucket above tmax is populated
	count  int
}

// New creates a table over the given arena. A non-positive linear bound
// selects DefaultLinear.
func New(arena Arena, linear int) *Table {
	if linear <= 0 {
		linear = DefaultLinear
	}
	offset := linear + bits.UintSize - bits.Len(uint(linear))
	t := &Table{
		arena:  arena,
		heads:  make([]int32, 2*offset+1),
		linear: linear,
		offset: offset,
	}
	t.clearBounds()
	for i := range t.heads {
		t.heads[i] = none
	}
	return t
}

func (t *Table) clearBounds() {
	t.tmin = len(t.heads)
	t.tmax = -1
}

// Bucket returns the bucket index of a gain. Indices are non-decreasing in gain.
func (t *Table) Bucket(gain int) int {
	if gain >= -t.linear && gain <= t.linear {
		return gain + t.offset
	}
	if gain > 0 {
		return t.offset + t.linear + bits.Len(uint(gain)) - bits.Len(uint(t.linear))
	}
	mag := uint(-(gain + 1)) + 1 // safe for math.MinInt
	return t.offset - t.linear - bits.Len(mag) + bits.Len(uint(t.linear))
}

// Len returns the number of linked records.
func (t *Table) Len() int { return t.count }

// Add links record h with the given gain.
func (t *Table) Add(h int, gain int) {
	l := t.arena.Link(h)
	b := t.Bucket(gain)
	l.Gain = gain
	l.bucket = int32(b)
	l.prev = none
	l.next = t.heads[b]
	if l.next != none {
		t.arena.Link(int(l.next)).prev = int32(h)
	}
	t.heads[b] = int32(h)
	l.State = Linked
	if b < t.tmin {
		t.tmin = b
	}
	if b > t.tmax {
		t.tmax = b
	}
	t.count++
}

// Del unlinks record h, which must be linked, and marks it free.
func (t *Table) Del(h int) {
	l := t.arena.Link(h)
	if l.prev != none {
		t.arena.Link(int(l.prev)).next = l.next
	} else {
		t.heads[l.bucket] = l.next
	}
	if l.next != none {
		t.arena.Link(int(l.next)).prev = l.prev
	}
	l.prev, l.next = none, none
	l.State = Free
	t.count--
}

// First returns a record of the lowest populated bucket, or -1.
func (t *Table) First() int {
	for b := t.tmin; b <= t.tmax; b++ {
		if t.heads[b] != none {
			t.tmin = b
			return int(t.heads[b])
		}
	}
	t.clearBounds()
	return none
}

// Next returns the record following h in increasing bucket order, or -1.
func (t *Table) Next(h int) int {
	l := t.arena.Link(h)
	if l.next != none {
		return int(l.next)
	}
	for b := int(l.bucket) + 1; b <= t.tmax; b++ {
		if t.heads[b] != none {
			return int(t.heads[b])
		}
	}
	return none
}

// Reset unlinks every record, marking them free.
func (t *Table) Reset() {
	for b := t.tmin; b <= t.tmax && b < len(t.heads); b++ {
		for h := t.heads[b]; h != none; {
			l := t.arena.Link(int(h))
			h = l.next
			l.prev, l.next = none, none
			l.State = Free
		}
		t.heads[b] = none
	}
	t.clearBounds()
	t.count = 0
}
