package gojaff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/pkg/errors"
)

// Shape classifies the structure of an IndexedList. A list never mixes
// shapes; the shape is fixed by the first element appended.
type Shape int32

const (
	// Flat: every element has exactly one coordinate and a leaf payload.
	Flat Shape = iota

	// Nested: every element has exactly one coordinate and a payload that
	// is itself an IndexedList (one "row").
	Nested

	// MultiIndex: every element has two or more coordinates and a leaf
	// payload.
	MultiIndex
)

func (s Shape) String() string {
	switch s {
	case Flat:
		return "flat"
	case Nested:
		return "nested"
	case MultiIndex:
		return "multi-index"
	default:
		return "unknown"
	}
}

// IndexedValue is an immutable pair of integer coordinates and a payload.
// The payload is either a leaf (opaque text) or a row (an IndexedList).
type IndexedValue struct {
	coords []int
	leaf   string
	row    *IndexedList
}

// Leaf builds a leaf IndexedValue at the given coordinates.
func Leaf(value string, coords ...int) IndexedValue {
	if len(coords) == 0 {
		panic("IndexedValue requires at least one coordinate")
	}
	c := make([]int, len(coords))
	copy(c, coords)
	return IndexedValue{coords: c, leaf: value}
}

// Row builds an IndexedValue whose payload is a sub-collection.
func Row(coord int, row IndexedList) IndexedValue {
	r := row
	return IndexedValue{coords: []int{coord}, row: &r}
}

func (v IndexedValue) Coords() []int {
	c := make([]int, len(v.coords))
	copy(c, v.coords)
	return c
}

// Coord returns the i-th coordinate.
func (v IndexedValue) Coord(i int) int { return v.coords[i] }

func (v IndexedValue) Arity() int { return len(v.coords) }

func (v IndexedValue) IsLeaf() bool { return v.row == nil }

// Leaf returns the payload text; empty for row values.
func (v IndexedValue) Leaf() string { return v.leaf }

// Row returns the payload sub-collection, if any.
func (v IndexedValue) Row() (IndexedList, bool) {
	if v.row == nil {
		return IndexedList{}, false
	}
	return *v.row, true
}

func (v IndexedValue) String() string {
	if v.row != nil {
		return fmt.Sprintf("%v -> %s", v.coords, v.row.String())
	}
	return fmt.Sprintf("%v -> %s", v.coords, v.leaf)
}

// IndexedList is an ordered collection of IndexedValue constrained to a
// single Shape. The zero value is an empty Flat list.
type IndexedList struct {
	shape Shape
	items []IndexedValue
}

// FlatList builds a Flat list, numbering values 0..n-1.
func FlatList(values ...string) IndexedList {
	l := IndexedList{shape: Flat}
	for i, v := range values {
		l.items = append(l.items, Leaf(v, i))
	}
	return l
}

// NestedList builds a Nested list from rows, preserving nesting: row i
// becomes an IndexedValue at coordinate i whose payload is the flat list
// of that row's values.
func NestedList(rows ...[]string) IndexedList {
	l := IndexedList{shape: Nested}
	for i, row := range rows {
		l.items = append(l.items, Row(i, FlatList(row...)))
	}
	return l
}

// MultiIndexList builds a MultiIndex list from rows, flattening nested
// input into two-coordinate entries.
func MultiIndexList(rows ...[]string) IndexedList {
	l := IndexedList{shape: MultiIndex}
	for i, row := range rows {
		for j, v := range row {
			l.items = append(l.items, Leaf(v, i, j))
		}
	}
	return l
}

// ListOf assembles a list from prebuilt values, rejecting mixed shapes.
func ListOf(items ...IndexedValue) (IndexedList, error) {
	var l IndexedList
	for _, it := range items {
		if err := l.Append(it); err != nil {
			return IndexedList{}, err
		}
	}
	return l, nil
}

func shapeOf(v IndexedValue) Shape {
	if !v.IsLeaf() {
		return Nested
	}
	if v.Arity() > 1 {
		return MultiIndex
	}
	return Flat
}

// Append adds one value; the first value fixes the list's shape and
// coordinate arity, later values must match both.
func (l *IndexedList) Append(v IndexedValue) error {
	s := shapeOf(v)
	if len(l.items) == 0 {
		l.shape = s
	} else if s != l.shape {
		return errors.Wrapf(ErrShapeMismatch, "cannot append %s value to %s list", s, l.shape)
	} else if v.Arity() != l.items[0].Arity() {
		return errors.Wrapf(ErrShapeMismatch,
			"coordinate arity %d does not match list arity %d", v.Arity(), l.items[0].Arity())
	}
	l.items = append(l.items, v)
	return nil
}

func (l IndexedList) Len() int { return len(l.items) }

func (l IndexedList) At(i int) IndexedValue { return l.items[i] }

func (l IndexedList) Shape() Shape { return l.shape }

// Arity is the coordinate arity of the list's elements (1 for Flat and
// Nested, >= 2 for MultiIndex). Empty lists report 1.
func (l IndexedList) Arity() int {
	if len(l.items) == 0 {
		return 1
	}
	return l.items[0].Arity()
}

// Values renders the leaves of a Flat list in order.
func (l IndexedList) Values() []string {
	out := make([]string, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, it.leaf)
	}
	return out
}

// SortedByText returns a copy of a Flat list reordered lexicographically
// by leaf text and renumbered sequentially.
func (l IndexedList) SortedByText() (IndexedList, error) {
	if l.shape != Flat {
		return IndexedList{}, errors.Wrapf(ErrShapeMismatch, "SORT requires a flat list, got %s", l.shape)
	}
	vals := l.Values()
	sort.Strings(vals)
	return FlatList(vals...), nil
}

// Flatten converts Nested to MultiIndex by joining each element's leading
// coordinate with its row coordinates. Flat and MultiIndex lists are
// returned unchanged. No element is dropped.
func (l IndexedList) Flatten() IndexedList {
	if l.shape != Nested {
		return l
	}
	out := IndexedList{shape: MultiIndex}
	for _, it := range l.items {
		row, _ := it.Row()
		for _, sub := range row.items {
			coords := append([]int{it.coords[0]}, sub.coords...)
			out.items = append(out.items, IndexedValue{coords: coords, leaf: sub.leaf})
		}
	}
	return out
}

// Group converts MultiIndex to Nested by grouping on the leading
// coordinate, preserving the leading-coordinate order via an ordered
// tree. Grouping is the inverse of Flatten on the multiset of
// (coordinates, payload) pairs.
func (l IndexedList) Group() IndexedList {
	if l.shape != Nested && l.shape != MultiIndex {
		return l
	}
	if l.shape == Nested {
		return l
	}
	tree := redblacktree.NewWith(utils.IntComparator)
	for _, it := range l.items {
		lead := it.coords[0]
		var row IndexedList
		if found, ok := tree.Get(lead); ok {
			row = found.(IndexedList)
		}
		sub := IndexedValue{coords: it.coords[1:], leaf: it.leaf}
		row.items = append(row.items, sub)
		if sub.Arity() > 1 {
			row.shape = MultiIndex
		} else {
			row.shape = Flat
		}
		tree.Put(lead, row)
	}

	out := IndexedList{shape: Nested}
	it := tree.Iterator()
	for it.Next() {
		out.items = append(out.items, Row(it.Key().(int), it.Value().(IndexedList)))
	}
	return out
}

// Renumber converts MultiIndex to Flat by dropping coordinates and
// numbering elements sequentially. Intended only for fully homogeneous
// one-dimensional consumption.
func (l IndexedList) Renumber() IndexedList {
	if l.shape != MultiIndex {
		return l
	}
	out := IndexedList{shape: Flat}
	for i, it := range l.items {
		out.items = append(out.items, Leaf(it.leaf, i))
	}
	return out
}

// Equal reports element-wise coordinate and payload equality.
func (l IndexedList) Equal(other IndexedList) bool {
	if len(l.items) != len(other.items) {
		return false
	}
	for i := range l.items {
		if !valueEqual(l.items[i], other.items[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b IndexedValue) bool {
	if len(a.coords) != len(b.coords) {
		return false
	}
	for i := range a.coords {
		if a.coords[i] != b.coords[i] {
			return false
		}
	}
	if a.IsLeaf() != b.IsLeaf() {
		return false
	}
	if a.IsLeaf() {
		return a.leaf == b.leaf
	}
	ra, _ := a.Row()
	rb, _ := b.Row()
	return ra.Equal(rb)
}

func (l IndexedList) String() string {
	var b strings.Builder
	b.WriteString("IndexedList[")
	for i, it := range l.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.String())
	}
	b.WriteString("]")
	return b.String()
}
