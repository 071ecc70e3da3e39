package scene

// JoinFunc is called with the data slot and the element bound to it.
type JoinFunc func(slot int, k Key)

// Join reconciles the children of parent tagged with role against n data
// slots, using the slot index as identity.
//
// Slots with no element yet get a new element of the given kind, which is
// handed to enter. Every slot in [0, n) is then handed to update, entered or
// not. Elements bound to slots at or past n are removed. Either callback may
// be nil.
func (s *Scene) Join(parent Key, role Role, kind Kind, n int, enter, update JoinFunc) (entered, exited int) {
	for slot := 0; slot < n; slot++ {
		k, ok := s.Lookup(parent, role, slot)
		if !ok {
			k = s.CreateRole(parent, kind, role, slot)
			if enter != nil {
				enter(slot, k)
			}
			entered++
		}
		if update != nil {
			update(slot, k)
		}
	}

	var stale []Key
	for _, c := range s.get(parent).children {
		e := s.elems[c]
		if e.role == role && e.slot >= n {
			stale = append(stale, c)
		}
	}
	for _, k := range stale {
		s.Remove(k)
	}
	return entered, len(stale)
}
