package arena

import "github.com/rogpeppe/heapcoll/object"

// collect reclaims unreachable objects and compacts the survivors.
// A minor collection treats every old object as live and traces
// only young ones; a major collection traces everything.
// Every survivor is old afterwards.
func (h *Heap) collect(major bool) {
	h.gray.Reset()
	for x := range h.roots {
		h.shade(x, major)
	}
	for _, t := range h.threads {
		for _, x := range t.protected {
			h.shade(x, major)
		}
	}
	if !major {
		for x := range h.remembered {
			for _, ref := range h.cell(x).refs {
				h.shade(ref, false)
			}
		}
	}
	for h.gray.Len() > 0 {
		for _, ref := range h.cell(h.gray.Pop()).refs {
			h.shade(ref, major)
		}
	}

	var freed, promoted, relocated int
	j := 0
	for i := range h.cells {
		c := &h.cells[i]
		if !c.marked && (major || !c.old) {
			h.release(c.handle)
			freed++
			continue
		}
		if !c.old {
			promoted++
		}
		c.old = true
		c.marked = false
		if i != j {
			h.cells[j] = *c
			relocated++
		}
		h.table[h.cells[j].handle] = int32(j)
		j++
	}
	clear(h.cells[j:])
	h.cells = h.cells[:j]
	clear(h.remembered)
	h.young = 0

	kind := "minor"
	if major {
		kind = "major"
		h.minors = 0
		h.stats.MajorCollections++
		h.metrics.major.Inc()
	} else {
		h.minors++
		h.stats.MinorCollections++
		h.metrics.minor.Inc()
	}
	h.stats.Freed += uint64(freed)
	h.stats.Relocations += uint64(relocated)
	h.metrics.relocations.Add(float64(relocated))
	h.metrics.live.Set(float64(j))
	h.log.Debug().
		Str("kind", kind).
		Int("live", j).
		Int("freed", freed).
		Int("promoted", promoted).
		Int("relocated", relocated).
		Msg("collection")
}

func (h *Heap) shade(x object.Handle, major bool) {
	if x == object.Nil {
		return
	}
	c := h.cell(x)
	if c.marked || (!major && c.old) {
		return
	}
	c.marked = true
	h.gray.Push(x)
}

func (h *Heap) release(x object.Handle) {
	h.table[x] = -1
	if !h.cfg.Stress {
		h.free.Push(x)
	}
}
