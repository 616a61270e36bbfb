package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x, y, w, h float64) *Shape {
	return NewRectangle(Rect{X: x, Y: y, Width: w, Height: h})
}

func TestSceneRemoveAtUsesOriginalIndices(t *testing.T) {
	s := NewScene()
	var shapes []*Shape
	for i := range 10 {
		sh := rect(float64(i*100), 0, 50, 50)
		shapes = append(shapes, sh)
		s.Push(sh)
	}

	removed := s.RemoveAt(KindShape, 5, 2, 8)
	require.Len(t, removed, 3)
	assert.Same(t, shapes[8], removed[0])
	assert.Same(t, shapes[5], removed[1])
	assert.Same(t, shapes[2], removed[2])

	want := []*Shape{shapes[0], shapes[1], shapes[3], shapes[4], shapes[6], shapes[7], shapes[9]}
	got := s.Entities(KindShape)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Same(t, want[i], got[i], "index %d", i)
	}
}

func TestSceneRemoveAtIgnoresBadIndices(t *testing.T) {
	s := NewScene()
	s.Push(rect(0, 0, 10, 10))
	s.Push(rect(20, 0, 10, 10))

	removed := s.RemoveAt(KindShape, -1, 1, 1, 7)
	assert.Len(t, removed, 1)
	assert.Equal(t, 1, s.Len(KindShape))
	assert.Nil(t, s.RemoveAt(numKinds, 0))
}

func TestSceneRefsStayValidAcrossRemoval(t *testing.T) {
	s := NewScene()
	a := s.Push(rect(0, 0, 10, 10))
	b := s.Push(rect(20, 0, 10, 10))
	c := s.Push(rect(40, 0, 10, 10))

	s.Remove(a)

	_, ok := s.Get(a)
	assert.False(t, ok, "removed ref must not resolve")

	eb, ok := s.Get(b)
	require.True(t, ok)
	assert.Equal(t, 20.0, eb.(*Shape).X)

	ec, ok := s.Get(c)
	require.True(t, ok)
	assert.Equal(t, 40.0, ec.(*Shape).X)

	d := s.Push(rect(60, 0, 10, 10))
	assert.NotEqual(t, a, d, "handles are never reused")
}

func TestSceneInsertClamps(t *testing.T) {
	s := NewScene()
	first := s.Push(rect(0, 0, 10, 10))
	front := s.Insert(-5, rect(1, 0, 10, 10))
	back := s.Insert(99, rect(2, 0, 10, 10))

	assert.Equal(t, 0, s.IndexOf(front))
	assert.Equal(t, 1, s.IndexOf(first))
	assert.Equal(t, 2, s.IndexOf(back))
}

func TestSceneAtOutOfRange(t *testing.T) {
	s := NewScene()
	s.Push(rect(0, 0, 10, 10))

	_, _, ok := s.At(KindShape, 1)
	assert.False(t, ok)
	_, _, ok = s.At(KindShape, -1)
	assert.False(t, ok)
	_, _, ok = s.At(KindPath, 0)
	assert.False(t, ok)

	e, ref, ok := s.At(KindShape, 0)
	require.True(t, ok)
	assert.Equal(t, KindShape, ref.Kind)
	assert.Equal(t, KindShape, e.Kind())
}

func TestSceneEachPainterOrder(t *testing.T) {
	s := NewScene()
	s.Push(&NestedCanvas{ID: "c", Width: 10, Height: 10})
	s.Push(rect(0, 0, 10, 10))
	s.Push(NewText(Point{}))
	s.Push(&Path{Points: []Point{{0, 0}}})

	var kinds []Kind
	s.Each(func(r Ref, _ Entity) bool {
		kinds = append(kinds, r.Kind)
		return true
	})
	assert.Equal(t, []Kind{KindPath, KindText, KindShape, KindNestedCanvas}, kinds)
	assert.Equal(t, 4, s.Count())
}

func TestSceneZOrderMoves(t *testing.T) {
	s := NewScene()
	a := s.Push(rect(0, 0, 10, 10))
	b := s.Push(rect(0, 0, 10, 10))
	c := s.Push(rect(0, 0, 10, 10))

	require.True(t, s.BringToFront(a))
	assert.Equal(t, []Ref{b, c, a}, s.Refs(KindShape))

	require.True(t, s.SendToBack(c))
	assert.Equal(t, []Ref{c, b, a}, s.Refs(KindShape))

	s.Remove(b)
	assert.False(t, s.BringToFront(b))
}

func TestSceneFindCanvas(t *testing.T) {
	s := NewScene()
	s.Push(&NestedCanvas{ID: "one", Width: 10, Height: 10})
	want := s.Push(&NestedCanvas{ID: "two", Width: 10, Height: 10})

	ref, nc, ok := s.FindCanvas("two")
	require.True(t, ok)
	assert.Equal(t, want, ref)
	assert.Equal(t, "two", nc.ID)

	_, _, ok = s.FindCanvas("missing")
	assert.False(t, ok)
}

func TestKindTextRoundTrip(t *testing.T) {
	for k := Kind(0); k < numKinds; k++ {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var got Kind
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, k, got)
	}
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("triangle")))
}
