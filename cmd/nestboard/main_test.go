package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/inamate/nestboard/internal/document"
	"github.com/inamate/nestboard/internal/engine"
)

func eventLines(t *testing.T, inputs ...engine.Input) string {
	t.Helper()
	var sb strings.Builder
	for _, in := range inputs {
		data, err := json.Marshal(in)
		require.NoError(t, err)
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func input(t *testing.T, typ string, payload any) engine.Input {
	t.Helper()
	in, err := engine.NewInput(typ, payload)
	require.NoError(t, err)
	return in
}

func rectangleEvents(t *testing.T) []engine.Input {
	return []engine.Input{
		input(t, engine.InputTool, engine.ToolInput{Tool: "rectangle"}),
		input(t, engine.InputPointer, engine.PointerInput{Phase: "down", X: 200, Y: 200}),
		input(t, engine.InputPointer, engine.PointerInput{Phase: "move", X: 260, Y: 240}),
		input(t, engine.InputPointer, engine.PointerInput{Phase: "up", X: 260, Y: 240}),
	}
}

func testCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	return cmd, &out
}

func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func TestReplayDrawsShapes(t *testing.T) {
	start := newBoard("Replay", false)
	events := eventLines(t, rectangleEvents(t)...)

	b, stats, err := replay(start, strings.NewReader(events), true)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.applied)
	assert.Equal(t, 1, stats.edits, "only the release commits")
	assert.Equal(t, 0, stats.rejected)
	require.Len(t, b.Root.Shapes, 1)
	assert.Equal(t, document.Shape{Type: document.ShapeTypeRectangle, X: 200, Y: 200, Width: 60, Height: 40}, b.Root.Shapes[0])
	assert.Empty(t, start.Root.Shapes)
}

func TestReplayRejectedEvents(t *testing.T) {
	events := eventLines(t, input(t, engine.InputTool, engine.ToolInput{Tool: "rectangle"})) +
		"\n" +
		`{"type":"teleport"}` + "\n" +
		"not json\n"

	t.Run("lenient", func(t *testing.T) {
		_, stats, err := replay(newBoard("Replay", false), strings.NewReader(events), false)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.applied)
		assert.Equal(t, 0, stats.edits)
		assert.Equal(t, 2, stats.rejected)
	})

	t.Run("strict", func(t *testing.T) {
		_, _, err := replay(newBoard("Replay", false), strings.NewReader(events), true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 3")
	})
}

func TestNewBoard(t *testing.T) {
	empty := newBoard("Plans", false)
	assert.Equal(t, "Plans", empty.Name)
	assert.True(t, strings.HasPrefix(empty.ID, "board_"))
	assert.Empty(t, empty.Root.Shapes)
	assert.NotEmpty(t, empty.CreatedAt)

	sample := newBoard("Demo", true)
	assert.Equal(t, "Demo", sample.Name)
	assert.NotEmpty(t, sample.Root.Shapes)
	assert.NotEmpty(t, sample.Nested)
	assert.NoError(t, sample.Validate())
}

func TestReadBoardAndSceneOf(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")

	var buf bytes.Buffer
	sample := newBoard("Demo", true)
	require.NoError(t, writeBoard(&buf, sample))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	b, err := readBoard(path)
	require.NoError(t, err)
	assert.Equal(t, sample.ID, b.ID)

	root, err := sceneOf(b, "")
	require.NoError(t, err)
	assert.Len(t, root.Shapes, len(sample.Root.Shapes))

	canvasID := sample.Root.Canvases[0].ID
	nested, err := sceneOf(b, canvasID)
	require.NoError(t, err)
	assert.Empty(t, nested.Canvases)

	_, err = sceneOf(b, "ncv_missing")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"root":{"shapes":[{"type":"hexagon"}]}}`), 0o644))
	_, err = readBoard(path)
	assert.Error(t, err)
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml"} {
		assert.NoError(t, validateFormat(f))
	}
	assert.Error(t, validateFormat("xml"))
}

func TestImportListShow(t *testing.T) {
	setFlag(t, &flagDB, filepath.Join(t.TempDir(), "nb", "local.db"))
	setFlag(t, &flagFormat, "json")

	var buf bytes.Buffer
	require.NoError(t, writeBoard(&buf, newBoard("Demo", true)))
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	cmd, out := testCommand(t)
	require.NoError(t, runImport(cmd, []string{path}))
	var imported importResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &imported))
	assert.Equal(t, "Demo", imported.Name)
	assert.Equal(t, 2, imported.Version)

	cmd, out = testCommand(t)
	require.NoError(t, runList(cmd, nil))
	var rows []boardRow
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, imported.BoardID, rows[0].ID)

	setFlag(t, &flagFormat, "yaml")
	cmd, out = testCommand(t)
	require.NoError(t, runShow(cmd, []string{imported.BoardID}))
	var summary boardSummary
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, imported.BoardID, summary.ID)
	assert.Equal(t, 2, summary.Version)
	assert.Equal(t, 2, summary.Root.Shapes)
	assert.Len(t, summary.Nested, 1)

	cmd, _ = testCommand(t)
	assert.Error(t, runShow(cmd, []string{"board_missing"}))
}

func TestSummaryText(t *testing.T) {
	setFlag(t, &flagFormat, "text")
	var out bytes.Buffer
	require.NoError(t, outputResult(&out, summarize(newBoard("Demo", true))))
	assert.Contains(t, out.String(), "Demo")
	assert.Contains(t, out.String(), "CANVAS")
	assert.Contains(t, out.String(), "root")
}
