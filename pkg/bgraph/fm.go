package bgraph

import (
	"math"

	"github.com/gilchrisn/graph-mapping-service/pkg/gain"
)

// FMParams are the parameters of the Fiduccia-Mattheyses refiner.
type FMParams struct {
	// Pass is the maximum number of passes; a negative value means no limit.
	Pass int `strat:"pass"`
	// Move is the number of moves without improvement after which a pass ends.
	Move int `strat:"move"`
	// Bal is the tolerated imbalance, as a ratio of the average load.
	Bal float64 `strat:"bal"`
}

// fmSave is the state of a record before its first change in an undo epoch.
type fmSave struct {
	h        int
	part     uint8
	compgain int
	commgain int
	commcut  int
	state    gain.State
}

// fmState is the part of the search state that checkpoints and rollbacks
// carry as a whole.
type fmState struct {
	commload     int
	dlt          int
	compsize0    int
	commgainExtn int
}

type fmSearch struct {
	b     *Graph
	tab   *fmTable
	gains *gain.Table

	cur  fmState
	best fmState

	dltmax int
	mat    int // largest imbalance a move may reach

	swapped bool // parts of vertices without a record are flipped
	epoch   int
	undo    []fmSave
	moves   int
}

// FM refines the partition by Fiduccia-Mattheyses passes with rollback to
// the best state met. When the best state is outside the balance window,
// a state is better when it is more balanced; otherwise it must stay in the
// window and have a smaller communication load, or the same load and a
// smaller imbalance. The communication load of a balanced starting state
// therefore never increases.
func (b *Graph) FM(p FMParams) error {
	if p.Move <= 0 {
		p.Move = math.MaxInt
	}
	dltmax := b.DltMax(p.Bal)

	if len(b.Frontab) == 0 {
		if abs(b.Compload0Dlt) <= dltmax {
			return nil
		}
		// Nothing to refine from: build a starting partition
		if err := b.GrowGreedy(GGParams{Pass: 4}); err != nil {
			return err
		}
		if len(b.Frontab) == 0 {
			return nil
		}
	}

	s := &fmSearch{
		b:      b,
		tab:    newFMTable(len(b.Frontab)),
		dltmax: dltmax,
		cur: fmState{
			commload:     b.Commload,
			dlt:          b.Compload0Dlt,
			compsize0:    b.Compsize0,
			commgainExtn: b.CommgainExtn,
		},
	}
	s.gains = gain.New(s.tab, 0)
	s.checkpoint()
	for _, v := range b.Frontab {
		if _, err := s.record(v); err != nil {
			return err
		}
	}

	pass := 0
	for ; p.Pass < 0 || pass < p.Pass; pass++ {
		s.seed()
		improved := false
		for moved := 0; moved < p.Move; moved++ {
			h := s.pick()
			if h < 0 {
				break
			}
			if err := s.move(h); err != nil {
				return err
			}
			if s.improves(s.cur) {
				s.checkpoint()
				s.globalSwap()
				improved = true
				moved = -1
			}
		}
		s.rollback()

		b.Log.Trace().
			Int("level", b.Level).
			Int("pass", pass).
			Int("commload", s.cur.commload).
			Int("dlt", s.cur.dlt).
			Int("records", s.tab.len()).
			Msg("FM pass done")

		if !improved {
			pass++
			break
		}
	}
	s.commit()

	b.Log.Debug().
		Int("level", b.Level).
		Int("passes", pass).
		Int("moves", s.moves).
		Int("commload", b.Commload).
		Int("dlt", b.Compload0Dlt).
		Msg("FM refinement finished")
	return nil
}

// partOf returns the current part of any vertex.
func (s *fmSearch) partOf(v int) uint8 {
	if h := s.tab.find(v); h >= 0 {
		return s.tab.recs[h].part
	}
	p := s.b.Parttax[v]
	if s.swapped {
		p ^= 1
	}
	return p
}

// record returns the handle of the record of v, creating it from the
// current parts of v and its neighbors if needed.
func (s *fmSearch) record(v int) (int, error) {
	if h := s.tab.find(v); h >= 0 {
		return h, nil
	}
	b := s.b
	p := s.partOf(v)
	rec := fmVertex{vert: v, part: p, mswpnum: -1}
	if p == 0 {
		rec.compgain = -b.S.VertexLoad(v)
	} else {
		rec.compgain = b.S.VertexLoad(v)
	}
	rec.commgain = b.ext(v, p)
	for e := b.S.Verttab[v]; e < b.S.Verttab[v+1]; e++ {
		c := b.S.EdgeLoad(e) * b.Domndist
		if s.partOf(b.S.Edgetab[e]) == p {
			rec.commgain += c
		} else {
			rec.commgain -= c
			rec.commcut++
		}
	}
	return s.tab.insert(rec)
}

// seed unlocks every record and links those on the frontier.
func (s *fmSearch) seed() {
	s.gains.Reset()
	for h := range s.tab.recs {
		r := &s.tab.recs[h]
		r.State = gain.Free
		if r.commcut > 0 {
			s.gains.Add(h, r.commgain)
		}
	}
}

// pick returns the linked record of best gain whose move keeps the
// imbalance within the window. Among records of the same gain the one
// giving the smallest imbalance wins, the first found on ties.
func (s *fmSearch) pick() int {
	best := -1
	bestGain, bestDlt := 0, 0
	for h := s.gains.First(); h >= 0; h = s.gains.Next(h) {
		r := &s.tab.recs[h]
		if best >= 0 && r.commgain != bestGain {
			break
		}
		dlt := s.cur.dlt + r.compgain
		if abs(dlt) > s.mat {
			continue
		}
		if best < 0 || abs(dlt) < abs(bestDlt) {
			best, bestGain, bestDlt = h, r.commgain, dlt
		}
	}
	return best
}

// save logs the state of a record on its first change in the epoch.
func (s *fmSearch) save(h int) {
	r := &s.tab.recs[h]
	if r.mswpnum == s.epoch {
		return
	}
	r.mswpnum = s.epoch
	s.undo = append(s.undo, fmSave{
		h:        h,
		part:     r.part,
		compgain: r.compgain,
		commgain: r.commgain,
		commcut:  r.commcut,
		state:    r.State,
	})
}

// relink puts an unlocked record in the bucket of its current gain if it
// is on the frontier, and out of the table otherwise.
func (s *fmSearch) relink(h int) {
	switch s.tab.recs[h].State {
	case gain.Used:
		return
	case gain.Linked:
		s.gains.Del(h)
	}
	if r := &s.tab.recs[h]; r.commcut > 0 {
		s.gains.Add(h, r.commgain)
	}
}

// move flips the record and updates its neighbors.
func (s *fmSearch) move(h int) error {
	b := s.b
	s.save(h)
	s.gains.Del(h)
	s.tab.recs[h].State = gain.Used
	v := s.tab.recs[h].vert
	from := s.tab.recs[h].part

	for e := b.S.Verttab[v]; e < b.S.Verttab[v+1]; e++ {
		// Records are created before v flips so that their saved state
		// matches the state rollback returns to.
		hu, err := s.record(b.S.Edgetab[e])
		if err != nil {
			return err
		}
		s.save(hu)
		c := b.S.EdgeLoad(e) * b.Domndist
		r := &s.tab.recs[hu]
		if r.part == from {
			r.commgain -= 2 * c
			r.commcut++
		} else {
			r.commgain += 2 * c
			r.commcut--
		}
		s.relink(hu)
	}

	r := &s.tab.recs[h]
	s.cur.dlt += r.compgain
	s.cur.commload += r.commgain
	s.cur.commgainExtn -= 2 * b.ext(v, from)
	if from == 0 {
		s.cur.compsize0--
	} else {
		s.cur.compsize0++
	}
	gainMoved := r.commgain
	r.part ^= 1
	r.compgain = -r.compgain
	r.commgain = -r.commgain
	r.commcut = b.S.Degree(v) - r.commcut

	s.moves++
	if b.Tracker != nil {
		b.Tracker.LogMove(MoveEvent{
			Method:   "fm",
			Level:    b.Level,
			Vertex:   b.S.Label(v),
			From:     from,
			To:       from ^ 1,
			Gain:     gainMoved,
			Commload: s.cur.commload,
			Dlt:      s.cur.dlt,
		})
	}
	return nil
}

// improves reports whether a state is better than the best one.
func (s *fmSearch) improves(st fmState) bool {
	ad, ab := abs(st.dlt), abs(s.best.dlt)
	if ab > s.dltmax {
		return ad < ab || (ad == ab && st.commload < s.best.commload)
	}
	if ad > s.dltmax {
		return false
	}
	return st.commload < s.best.commload || (st.commload == s.best.commload && ad < ab)
}

// checkpoint makes the current state the best one and starts a new epoch.
func (s *fmSearch) checkpoint() {
	s.best = s.cur
	s.mat = max(s.dltmax, abs(s.best.dlt))
	s.epoch++
	s.undo = s.undo[:0]
}

// rollback undoes every change since the last checkpoint.
func (s *fmSearch) rollback() {
	for _, u := range s.undo {
		if s.tab.recs[u.h].State == gain.Linked {
			s.gains.Del(u.h)
		}
	}
	for _, u := range s.undo {
		r := &s.tab.recs[u.h]
		r.part = u.part
		r.compgain = u.compgain
		r.commgain = u.commgain
		r.commcut = u.commcut
		if u.state == gain.Linked {
			s.gains.Add(u.h, u.commgain)
		} else {
			r.State = u.state
		}
	}
	s.cur = s.best
	s.epoch++
	s.undo = s.undo[:0]
}

// globalSwap exchanges the parts of all vertices when this lowers the
// communication load through external gains without leaving the window.
func (s *fmSearch) globalSwap() {
	b := s.b
	if b.Veextab == nil {
		return
	}
	next := fmState{
		commload:     s.cur.commload + s.cur.commgainExtn,
		dlt:          b.S.VeloSum - s.cur.dlt - 2*b.Compload0Avg,
		compsize0:    b.S.VertNbr - s.cur.compsize0,
		commgainExtn: -s.cur.commgainExtn,
	}
	if next.commload >= s.cur.commload || abs(next.dlt) > s.mat || !s.improves(next) {
		return
	}

	s.swapped = !s.swapped
	for h := range s.tab.recs {
		r := &s.tab.recs[h]
		x := b.ext(r.vert, r.part)
		r.part ^= 1
		r.compgain = -r.compgain
		r.commgain -= 2 * x
		if r.State == gain.Linked {
			s.gains.Del(h)
			s.gains.Add(h, r.commgain)
		}
	}
	s.cur = next
	s.checkpoint()

	b.Log.Trace().Int("level", b.Level).Int("commload", s.cur.commload).Msg("FM global swap")
}

// commit writes the best state back into the graph.
func (s *fmSearch) commit() {
	b := s.b
	if s.swapped {
		for i := range b.Parttax {
			b.Parttax[i] ^= 1
		}
	}
	b.Frontab = b.Frontab[:0]
	for h := range s.tab.recs {
		r := &s.tab.recs[h]
		b.Parttax[r.vert] = r.part
		if r.commcut > 0 {
			b.Frontab = append(b.Frontab, r.vert)
		}
	}
	b.Compload0Dlt = s.best.dlt
	b.Compload0 = b.Compload0Avg + s.best.dlt
	b.Compsize0 = s.best.compsize0
	b.Commload = s.best.commload
	b.CommgainExtn = s.best.commgainExtn
}
