package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rogpeppe/heapcoll/arena"
	"github.com/rogpeppe/heapcoll/hashers"
	"github.com/rogpeppe/heapcoll/hashmap"
	"github.com/rogpeppe/heapcoll/object"
	"github.com/rogpeppe/heapcoll/seq"
	"github.com/rogpeppe/heapcoll/symtab"
)

type workload struct {
	Symbols     int
	RemoveEvery int
}

type report struct {
	Interned  int
	Removed   int
	Remaining int
	Stats     arena.Stats
}

// run interns w.Symbols names twice, checking that the second pass
// yields the same symbols, removes every w.RemoveEvery'th one and
// then checks that the table, an identity map keyed by the surviving
// symbols and the sequences holding them all agree.
func run(h *arena.Heap, w workload, logger zerolog.Logger) (report, error) {
	th := h.NewThread()
	tab, err := symtab.New(th, 0)
	if err != nil {
		return report{}, err
	}
	h.AddRoot(tab.Handle())
	defer h.RemoveRoot(tab.Handle())

	order, err := seq.NewVector(th, 0)
	if err != nil {
		return report{}, err
	}
	h.AddRoot(order)
	defer func() {
		h.RemoveRoot(order)
	}()

	for i := range w.Symbols {
		sym, err := tab.Intern(th, name(i))
		if err != nil {
			return report{}, err
		}
		next, err := seq.VectorAppend(th, order, sym)
		if err != nil {
			return report{}, err
		}
		if next != order {
			h.AddRoot(next)
			h.RemoveRoot(order)
			order = next
		}
	}
	logger.Debug().Int("symbols", tab.Len(th)).Msg("interned")

	for i := range w.Symbols {
		sym, err := tab.Intern(th, name(i))
		if err != nil {
			return report{}, err
		}
		if want := seq.VectorAt(th, order, i); sym != want {
			return report{}, errors.Errorf("%s interned as %v, then as %v", name(i), want, sym)
		}
	}

	removed, err := seq.NewList(th)
	if err != nil {
		return report{}, err
	}
	h.AddRoot(removed)
	defer h.RemoveRoot(removed)
	if w.RemoveEvery > 0 {
		for i := 0; i < w.Symbols; i += w.RemoveEvery {
			sym, err := tab.Remove(th, name(i))
			if err != nil {
				return report{}, err
			}
			if sym != seq.VectorAt(th, order, i) {
				return report{}, errors.Errorf("removing %s gave %v", name(i), sym)
			}
			if err := seq.ListAppend(th, removed, sym); err != nil {
				return report{}, err
			}
		}
	}
	logger.Debug().Int("removed", seq.ListLen(th, removed)).Msg("removed")

	// Index the survivors by identity. The symbols move on every
	// compaction, so this only works if identity hashing ignores
	// location.
	ids, err := hashmap.Make(th, hashers.Identity{}, 0)
	if err != nil {
		return report{}, err
	}
	h.AddRoot(ids.Handle())
	defer h.RemoveRoot(ids.Handle())
	for i := range w.Symbols {
		if w.RemoveEvery > 0 && i%w.RemoveEvery == 0 {
			continue
		}
		idx, err := object.NewWord(th, uint64(i))
		if err != nil {
			return report{}, err
		}
		if err := ids.Insert(th, seq.VectorAt(th, order, i), idx); err != nil {
			return report{}, err
		}
	}

	if err := tab.Verify(th); err != nil {
		return report{}, errors.Wrap(err, "symbol table")
	}
	if err := ids.Verify(th); err != nil {
		return report{}, errors.Wrap(err, "identity map")
	}
	for sym := range seq.ListAll(th, removed) {
		if ids.FindNode(th, sym) != object.Nil {
			return report{}, errors.Errorf("removed symbol %q still indexed", th.Bytes(sym))
		}
	}

	syms, err := tab.Symbols(th)
	if err != nil {
		return report{}, err
	}
	h.AddRoot(syms)
	defer h.RemoveRoot(syms)
	for sym := range seq.ListAll(th, syms) {
		idx := ids.Find(th, sym)
		if idx == object.Nil {
			return report{}, errors.Errorf("symbol %q missing from identity map", th.Bytes(sym))
		}
		if got := seq.VectorAt(th, order, int(object.WordOf(th, idx))); got != sym {
			return report{}, errors.Errorf("symbol %q indexed at the wrong position", th.Bytes(sym))
		}
	}
	if n, m := seq.ListLen(th, syms), ids.Len(th); n != m {
		return report{}, errors.Errorf("table holds %d symbols but %d are indexed", n, m)
	}

	r := report{
		Interned:  w.Symbols,
		Removed:   seq.ListLen(th, removed),
		Remaining: tab.Len(th),
		Stats:     h.Stats(),
	}
	logger.Info().
		Int("live", r.Stats.Live).
		Uint64("allocations", r.Stats.Allocations).
		Uint64("minor", r.Stats.MinorCollections).
		Uint64("major", r.Stats.MajorCollections).
		Uint64("relocations", r.Stats.Relocations).
		Uint64("barrierStores", r.Stats.BarrierStores).
		Uint64("remembered", r.Stats.Remembered).
		Msg("heap statistics")
	return r, nil
}

func name(i int) []byte {
	return fmt.Appendf(nil, "sym-%d", i)
}
