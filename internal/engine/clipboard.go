package engine

import (
	"github.com/inamate/nestboard/internal/document"
)

// PasteOffset is how far, in world units, each paste is shifted from the
// previous copy.
const PasteOffset = 20.0

type clipItem struct {
	e Entity
	// nested is the persisted scene of a copied nested canvas.
	nested *document.SceneData
}

// Clipboard holds deep copies of entities. Pasting never aliases its
// contents, and every paste moves the held copies by PasteOffset so that
// repeated pastes cascade.
type Clipboard struct {
	items []clipItem
}

// Len returns the number of held entities.
func (c *Clipboard) Len() int { return len(c.items) }

// Clear empties the clipboard.
func (c *Clipboard) Clear() { c.items = nil }

// copyFrom replaces the clipboard with the selection of ctx. Nested canvas
// data is copied out of store.
func (c *Clipboard) copyFrom(ctx *Context, store *NestedStore) int {
	c.items = c.items[:0]
	for _, e := range ctx.SelectedEntities() {
		item := clipItem{e: e.Clone()}
		if nc, ok := e.(*NestedCanvas); ok {
			sd := store.Load(nc.ID)
			item.nested = &sd
		}
		c.items = append(c.items, item)
	}
	return len(c.items)
}

// pasteInto adds offset copies of the clipboard to ctx and selects them.
// Nested canvases get fresh ids and a copy of their nested data, and are
// skipped entirely outside the root context.
func (c *Clipboard) pasteInto(ctx *Context, store *NestedStore, newID func() string) []Ref {
	var refs []Ref
	for _, item := range c.items {
		item.e.Translate(Point{PasteOffset, PasteOffset})

		e := item.e.Clone()
		switch v := e.(type) {
		case *Text:
			v.IsEditing = false
		case *NestedCanvas:
			if !ctx.IsRoot() {
				continue
			}
			v.ID = newID()
			if item.nested != nil {
				store.Save(v.ID, *item.nested)
			} else {
				store.Ensure(v.ID)
			}
		}
		refs = append(refs, ctx.Scene.Push(e))
	}
	ctx.Select(refs...)
	return refs
}
