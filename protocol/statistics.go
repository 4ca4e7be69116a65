package protocol

import (
	"maps"
	"slices"

	"partywire/codec"
)

// ControllerSet is a set of controller ids.
type ControllerSet map[uint16]struct{}

func NewControllerSet(ids ...uint16) ControllerSet {
	s := make(ControllerSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ControllerSet) Add(id uint16) {
	s[id] = struct{}{}
}

func (s ControllerSet) Has(id uint16) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s ControllerSet) Sorted() []uint16 {
	return slices.Sorted(maps.Keys(s))
}

func (s ControllerSet) Equal(o ControllerSet) bool {
	return maps.Equal(s, o)
}

func (s ControllerSet) MarshalWire(e *codec.Encoder) error {
	e.Varint(uint64(len(s)))
	for _, id := range s.Sorted() {
		e.Uint16(id)
	}
	return nil
}

func (s *ControllerSet) UnmarshalWire(d *codec.Decoder) error {
	n, err := d.Len("ControllerSet")
	if err != nil {
		return err
	}
	out := make(ControllerSet, n)
	for i := 0; i < n; i++ {
		id, err := d.Uint16()
		if err != nil {
			return err
		}
		out[id] = struct{}{}
	}
	*s = out
	return nil
}

// Statistics is a snapshot of which controllers are attached to which
// session, keyed by session identifier.
type Statistics struct {
	Tree map[string]ControllerSet
}

// Sessions returns the session identifiers in ascending order.
func (st Statistics) Sessions() []string {
	return slices.Sorted(maps.Keys(st.Tree))
}

// Controllers returns the total number of attached controllers.
func (st Statistics) Controllers() int {
	n := 0
	for _, set := range st.Tree {
		n += len(set)
	}
	return n
}

func (st Statistics) Equal(o Statistics) bool {
	return maps.EqualFunc(st.Tree, o.Tree, ControllerSet.Equal)
}

func (st Statistics) MarshalWire(e *codec.Encoder) error {
	e.Varint(uint64(len(st.Tree)))
	for _, id := range st.Sessions() {
		if err := e.String(id); err != nil {
			return err
		}
		if err := st.Tree[id].MarshalWire(e); err != nil {
			return err
		}
	}
	return nil
}

func (st *Statistics) UnmarshalWire(d *codec.Decoder) error {
	n, err := d.Len("Statistics")
	if err != nil {
		return err
	}
	tree := make(map[string]ControllerSet, n)
	for i := 0; i < n; i++ {
		id, err := d.String()
		if err != nil {
			return err
		}
		var set ControllerSet
		if err := set.UnmarshalWire(d); err != nil {
			return err
		}
		tree[id] = set
	}
	*st = Statistics{Tree: tree}
	return nil
}
