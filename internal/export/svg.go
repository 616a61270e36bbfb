// Package export renders board scenes to standalone SVG documents.
package export

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo/float"

	"github.com/inamate/nestboard/internal/document"
	"github.com/inamate/nestboard/internal/engine"
)

// Padding is the margin around the scene content, in world units.
const Padding = 20

// SVG renders one scene in world coordinates. The viewBox is fitted to the
// content plus Padding; the camera is ignored.
func SVG(sd document.SceneData) []byte {
	ctx := engine.LoadContext("", sd)
	frame := engine.CompileFrame(ctx, engine.NewMachine(nil, nil), engine.CursorDefault)

	var bounds engine.Rect
	ctx.Scene.Each(func(_ engine.Ref, e engine.Entity) bool {
		bounds = bounds.Union(e.Bounds())
		return true
	})
	if bounds.IsEmpty() {
		bounds = engine.Rect{Width: 100, Height: 100}
	}
	view := engine.Rect{
		X:      bounds.X - Padding,
		Y:      bounds.Y - Padding,
		Width:  bounds.Width + 2*Padding,
		Height: bounds.Height + 2*Padding,
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(view.Width, view.Height, view.X, view.Y, view.Width, view.Height)
	for _, cmd := range frame.Commands {
		draw(canvas, cmd)
	}
	canvas.End()
	return buf.Bytes()
}

func draw(canvas *svg.SVG, cmd engine.DrawCommand) {
	stroke := []string{attr("fill", "none"), attr("stroke", cmd.Stroke), attr("stroke-width", num(cmd.StrokeWidth))}

	switch cmd.Op {
	case "path":
		if len(cmd.Points) == 0 {
			return
		}
		xs := make([]float64, len(cmd.Points))
		ys := make([]float64, len(cmd.Points))
		for i, p := range cmd.Points {
			xs[i], ys[i] = p.X, p.Y
		}
		canvas.Polyline(xs, ys, append(stroke, attr("stroke-linecap", "round"), attr("stroke-linejoin", "round"))...)
	case "rect":
		canvas.Rect(cmd.X, cmd.Y, cmd.Width, cmd.Height, stroke...)
	case "circle":
		canvas.Circle(cmd.X, cmd.Y, cmd.Radius, stroke...)
	case "canvas":
		stroke[0] = attr("fill", cmd.Fill)
		canvas.Rect(cmd.X, cmd.Y, cmd.Width, cmd.Height, append([]string{attr("data-canvas-id", cmd.CanvasID)}, stroke...)...)
	case "text":
		drawText(canvas, cmd)
	}
}

// drawText writes one text element per line; the first baseline sits one
// font size below the box top.
func drawText(canvas *svg.SVG, cmd engine.DrawCommand) {
	fill := cmd.Fill
	if fill == "" {
		fill = "#000000"
	}
	style := []string{attr("font-size", num(cmd.FontSize)), attr("font-family", cmd.FontFamily), attr("fill", fill)}
	lineHeight := cmd.FontSize * engine.LineHeight
	for i, line := range strings.Split(cmd.Text, "\n") {
		canvas.Text(cmd.X, cmd.Y+cmd.FontSize+float64(i)*lineHeight, line, style...)
	}
}

// attr formats an attribute for svgo, which passes name="value" arguments
// through verbatim.
func attr(name, value string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(`="`)
	xml.EscapeText(&b, []byte(value))
	b.WriteByte('"')
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
