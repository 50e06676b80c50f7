package effect

import (
	"slices"
	"strings"
)

// Selection is an ordered set of effect kinds. Order is the order the user
// picked them in, and decides chain order. Selections are values: every
// modifier returns a new Selection and leaves the receiver alone.
type Selection struct {
	kinds []Kind
}

// NewSelection returns a selection of ks, dropping duplicates and Identity.
func NewSelection(ks ...Kind) Selection {
	s := Selection{}
	for _, k := range ks {
		s = s.Add(k)
	}
	return s
}

// Kinds returns the selected kinds in chain order.
func (s Selection) Kinds() []Kind {
	return slices.Clone(s.kinds)
}

// Len returns the number of selected kinds.
func (s Selection) Len() int { return len(s.kinds) }

// Contains reports whether k is selected.
func (s Selection) Contains(k Kind) bool {
	return slices.Contains(s.kinds, k)
}

// Add appends k unless it is already selected.
func (s Selection) Add(k Kind) Selection {
	if !k.Valid() || s.Contains(k) {
		return s
	}
	return Selection{kinds: append(slices.Clone(s.kinds), k)}
}

// Remove drops k, keeping the order of the rest.
func (s Selection) Remove(k Kind) Selection {
	i := slices.Index(s.kinds, k)
	if i < 0 {
		return s
	}
	return Selection{kinds: slices.Delete(slices.Clone(s.kinds), i, i+1)}
}

// Toggle adds k if absent and removes it if present.
func (s Selection) Toggle(k Kind) Selection {
	if s.Contains(k) {
		return s.Remove(k)
	}
	return s.Add(k)
}

// Equal reports whether both selections hold the same kinds in the same order.
func (s Selection) Equal(o Selection) bool {
	return slices.Equal(s.kinds, o.kinds)
}

func (s Selection) String() string {
	names := make([]string, len(s.kinds))
	for i, k := range s.kinds {
		names[i] = k.String()
	}
	return "[" + strings.Join(names, ",") + "]"
}
