package engine

// HitTest returns the topmost entity under the world point p.
//
// Containers are visited in hitOrder (nested canvases first, paths last)
// and each container from its last-drawn entity down, so the first hit is
// the one drawn on top.
func HitTest(s *Scene, p Point) (Ref, bool) {
	if s == nil {
		return Ref{}, false
	}
	for _, k := range hitOrder {
		layer := s.layers[k]
		for i := len(layer) - 1; i >= 0; i-- {
			if layer[i].e.HitTest(p) {
				return Ref{Kind: k, ID: layer[i].id}, true
			}
		}
	}
	return Ref{}, false
}

// Overlapping returns every entity whose geometry touches area. This is the
// permissive predicate used while a box selection is in progress.
func Overlapping(s *Scene, area Rect) []Ref {
	area = area.Normalize()
	return collect(s, func(e Entity) bool { return e.Overlaps(area) })
}

// Contained returns every entity whose bounds lie fully inside area. This
// is the strict predicate applied when a box selection is released.
func Contained(s *Scene, area Rect) []Ref {
	area = area.Normalize()
	return collect(s, func(e Entity) bool { return area.ContainsRect(e.Bounds()) })
}

func collect(s *Scene, pred func(Entity) bool) []Ref {
	if s == nil {
		return nil
	}
	var out []Ref
	s.Each(func(r Ref, e Entity) bool {
		if pred(e) {
			out = append(out, r)
		}
		return true
	})
	return out
}

// SelectionBounds returns the combined bounding box of the given entities.
// Stale refs are ignored.
func SelectionBounds(s *Scene, refs []Ref) Rect {
	var corners []Point
	for _, r := range refs {
		e, ok := s.Get(r)
		if !ok {
			continue
		}
		b := e.Bounds()
		corners = append(corners, Point{b.X, b.Y}, Point{b.Right(), b.Bottom()})
	}
	return boundsOf(corners)
}
