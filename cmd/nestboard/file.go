package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/inamate/nestboard/internal/document"
	"github.com/inamate/nestboard/internal/engine"
	"github.com/inamate/nestboard/internal/export"
	"github.com/inamate/nestboard/internal/typeid"
)

var (
	flagOut    string
	flagName   string
	flagSample bool
	flagBoard  string
	flagStrict bool
	flagCanvas string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Write a new board document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOutput(cmd, flagOut, func(w io.Writer) error {
			return writeBoard(w, newBoard(flagName, flagSample))
		})
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <events.jsonl>",
	Short: "Feed recorded input events through the engine",
	Long:  "Reads one input event per line, {\"type\": ..., \"payload\": ...}, applies them in order to a board and writes the resulting board.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

var exportCmd = &cobra.Command{
	Use:   "export <board.json>",
	Short: "Export a board, or one of its nested canvases, as SVG",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	for _, c := range []*cobra.Command{newCmd, replayCmd, exportCmd} {
		c.Flags().StringVarP(&flagOut, "out", "o", "", "output file (default: stdout)")
	}
	newCmd.Flags().StringVar(&flagName, "name", "Untitled", "board name")
	newCmd.Flags().BoolVar(&flagSample, "sample", false, "start from the sample board")
	replayCmd.Flags().StringVar(&flagBoard, "board", "", "board to start from (default: a new empty board)")
	replayCmd.Flags().BoolVar(&flagStrict, "strict", false, "stop at the first event the engine rejects")
	exportCmd.Flags().StringVar(&flagCanvas, "canvas", "", "export this nested canvas instead of the root")
}

func newBoard(name string, sample bool) *document.Board {
	id := typeid.NewBoardID()
	var b *document.Board
	if sample {
		b = document.NewSampleBoard(id)
	} else {
		b = document.NewEmptyBoard(id, name)
		b.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		b.UpdatedAt = b.CreatedAt
	}
	b.Name = name
	return b
}

func runReplay(cmd *cobra.Command, args []string) error {
	start := newBoard("Untitled", false)
	if flagBoard != "" {
		b, err := readBoard(flagBoard)
		if err != nil {
			return err
		}
		start = b
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	out, stats, err := replay(start, f, flagStrict)
	if err != nil {
		return err
	}
	slog.Info("replay finished", "applied", stats.applied, "edits", stats.edits, "rejected", stats.rejected)

	return writeOutput(cmd, flagOut, func(w io.Writer) error {
		return writeBoard(w, out)
	})
}

type replayStats struct {
	applied  int
	edits    int // applied events that changed entities
	rejected int
}

// replay applies every input line of r to a copy of b. Blank lines are
// skipped. Rejected events are logged and skipped unless strict is set.
func replay(b *document.Board, r io.Reader, strict bool) (*document.Board, replayStats, error) {
	var stats replayStats

	eng := engine.New(engine.WithLogger(slog.Default()))
	if err := eng.Load(b); err != nil {
		return nil, stats, err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}

		var in engine.Input
		var res engine.Result
		err := json.Unmarshal(raw, &in)
		if err == nil {
			res, err = eng.Apply(in)
		}
		if err != nil {
			if strict {
				return nil, stats, fmt.Errorf("line %d: %w", line, err)
			}
			slog.Warn("skipping event", "line", line, "error", err)
			stats.rejected++
			continue
		}
		stats.applied++
		if res.Changed {
			stats.edits++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("read events: %w", err)
	}

	return eng.Board(), stats, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	b, err := readBoard(args[0])
	if err != nil {
		return err
	}

	scene, err := sceneOf(b, flagCanvas)
	if err != nil {
		return err
	}

	return writeOutput(cmd, flagOut, func(w io.Writer) error {
		_, err := w.Write(export.SVG(scene))
		return err
	})
}

// sceneOf returns the root scene of b, or the scene of nested canvas id.
func sceneOf(b *document.Board, id string) (document.SceneData, error) {
	if id == "" {
		return b.Root, nil
	}
	sd, ok := b.Nested[id]
	if !ok {
		return document.SceneData{}, fmt.Errorf("nested canvas %q not found", id)
	}
	return sd, nil
}

func readBoard(path string) (*document.Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	var b document.Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode board %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board %s: %w", path, err)
	}
	b.Normalize()
	return &b, nil
}

func writeBoard(w io.Writer, b *document.Board) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// writeOutput runs fn against path, or the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
