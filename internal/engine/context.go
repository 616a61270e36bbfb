package engine

import "slices"

// Context is the full state of one canvas: its camera, its entities and
// the transient interaction state (selection, preview, hover, the path
// being drawn). The root canvas and every nested canvas each get one.
type Context struct {
	// ID is empty for the root canvas and the nested canvas id otherwise.
	ID     string
	Camera Camera
	Scene  *Scene

	Selected    []Ref
	Preview     []Ref
	Hovered     Ref
	CurrentPath *Path
}

// NewContext creates an empty context with a default camera.
func NewContext(id string) *Context {
	return &Context{ID: id, Camera: NewCamera(), Scene: NewScene()}
}

// IsRoot reports whether c is the root canvas.
func (c *Context) IsRoot() bool { return c.ID == "" }

// IsSelected reports whether r is part of the selection.
func (c *Context) IsSelected(r Ref) bool {
	return slices.Contains(c.Selected, r)
}

// IsPreviewed reports whether r would be selected by the box in progress.
func (c *Context) IsPreviewed(r Ref) bool {
	return slices.Contains(c.Preview, r)
}

// Select replaces the selection. Stale and duplicate refs are dropped.
func (c *Context) Select(refs ...Ref) {
	sel := make([]Ref, 0, len(refs))
	for _, r := range refs {
		if _, ok := c.Scene.Get(r); ok && !slices.Contains(sel, r) {
			sel = append(sel, r)
		}
	}
	c.Selected = sel
}

// ToggleSelected adds r to the selection or removes it if present.
func (c *Context) ToggleSelected(r Ref) {
	if i := slices.Index(c.Selected, r); i >= 0 {
		c.Selected = slices.Delete(c.Selected, i, i+1)
		return
	}
	if _, ok := c.Scene.Get(r); ok {
		c.Selected = append(c.Selected, r)
	}
}

// ClearSelection empties the selection.
func (c *Context) ClearSelection() {
	c.Selected = nil
}

// SelectAll selects every entity in painter order.
func (c *Context) SelectAll() {
	c.ClearSelection()
	c.Scene.Each(func(r Ref, _ Entity) bool {
		c.Selected = append(c.Selected, r)
		return true
	})
}

// SingleSelected returns the selected entity when exactly one is selected.
func (c *Context) SingleSelected() (Ref, Entity, bool) {
	if len(c.Selected) != 1 {
		return Ref{}, nil, false
	}
	e, ok := c.Scene.Get(c.Selected[0])
	if !ok {
		return Ref{}, nil, false
	}
	return c.Selected[0], e, true
}

// SelectedEntities resolves the selection in selection order.
func (c *Context) SelectedEntities() []Entity {
	out := make([]Entity, 0, len(c.Selected))
	for _, r := range c.Selected {
		if e, ok := c.Scene.Get(r); ok {
			out = append(out, e)
		}
	}
	return out
}

// Prune drops selection, preview and hover references that no longer
// resolve.
func (c *Context) Prune() {
	stale := func(r Ref) bool {
		_, ok := c.Scene.Get(r)
		return !ok
	}
	c.Selected = slices.DeleteFunc(c.Selected, stale)
	c.Preview = slices.DeleteFunc(c.Preview, stale)
	if _, ok := c.Scene.Get(c.Hovered); !ok {
		c.Hovered = Ref{}
	}
}

// Remove deletes the given entities and drops any references to them.
func (c *Context) Remove(refs ...Ref) []Entity {
	removed := c.Scene.Remove(refs...)
	c.Prune()
	return removed
}

// DeleteSelected removes every selected entity in one operation.
func (c *Context) DeleteSelected() []Entity {
	return c.Remove(slices.Clone(c.Selected)...)
}

// TranslateSelected moves every selected entity by d.
func (c *Context) TranslateSelected(d Point) {
	for _, e := range c.SelectedEntities() {
		e.Translate(d)
	}
}
