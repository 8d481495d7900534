package wm

// Stats counts store activity since the store was created.
type Stats struct {
	Ops     map[Op]uint64 `json:"ops"`
	Ignored uint64        `json:"ignored"`
	Active  int           `json:"active"`
	Peak    int           `json:"peak"`
}

func newStats() Stats {
	return Stats{Ops: make(map[Op]uint64, len(Ops))}
}

func (st *Stats) observe(op Op, active int) {
	st.Ops[op]++
	st.Active = active
	if active > st.Peak {
		st.Peak = active
	}
}

// Stats returns a copy of the counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.Ops = make(map[Op]uint64, len(s.stats.Ops))
	for op, n := range s.stats.Ops {
		out.Ops[op] = n
	}
	return out
}
