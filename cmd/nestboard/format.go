package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/inamate/nestboard/internal/document"
)

func validateFormat(f string) error {
	switch f {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", f)
}

type importResult struct {
	BoardID string `json:"boardId" yaml:"boardId"`
	Name    string `json:"name" yaml:"name"`
	Version int    `json:"version" yaml:"version"`
}

type boardRow struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	UpdatedAt string `json:"updatedAt" yaml:"updatedAt"`
}

type sceneSummary struct {
	Paths    int `json:"paths" yaml:"paths"`
	Shapes   int `json:"shapes" yaml:"shapes"`
	Texts    int `json:"texts" yaml:"texts"`
	Canvases int `json:"canvases,omitempty" yaml:"canvases,omitempty"`
}

type boardSummary struct {
	ID      string                  `json:"id" yaml:"id"`
	Name    string                  `json:"name" yaml:"name"`
	Version int                     `json:"version" yaml:"version"`
	Root    sceneSummary            `json:"root" yaml:"root"`
	Nested  map[string]sceneSummary `json:"nested,omitempty" yaml:"nested,omitempty"`
}

func summarizeScene(sd document.SceneData) sceneSummary {
	return sceneSummary{
		Paths:    len(sd.Paths),
		Shapes:   len(sd.Shapes),
		Texts:    len(sd.Texts),
		Canvases: len(sd.Canvases),
	}
}

func summarize(b *document.Board) boardSummary {
	s := boardSummary{
		ID:      b.ID,
		Name:    b.Name,
		Version: b.Version,
		Root:    summarizeScene(b.Root),
	}
	if len(b.Nested) > 0 {
		s.Nested = make(map[string]sceneSummary, len(b.Nested))
		for id, sd := range b.Nested {
			s.Nested[id] = summarizeScene(sd)
		}
	}
	return s
}

// outputResult writes v in the format chosen by --format.
func outputResult(w io.Writer, v any) error {
	switch flagFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	switch v := v.(type) {
	case importResult:
		fmt.Fprintf(w, "imported %s (%s) as version %d\n", v.BoardID, v.Name, v.Version)
	case []boardRow:
		formatBoardsText(w, v)
	case boardSummary:
		formatSummaryText(w, v)
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
	return nil
}

func formatBoardsText(w io.Writer, rows []boardRow) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Name, r.UpdatedAt)
	}
	tw.Flush()
}

func formatSummaryText(w io.Writer, s boardSummary) {
	fmt.Fprintf(w, "%s  %s  (version %d)\n", s.ID, s.Name, s.Version)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CANVAS\tPATHS\tSHAPES\tTEXTS\tCANVASES")
	fmt.Fprintf(tw, "root\t%d\t%d\t%d\t%d\n", s.Root.Paths, s.Root.Shapes, s.Root.Texts, s.Root.Canvases)
	for _, id := range slices.Sorted(maps.Keys(s.Nested)) {
		n := s.Nested[id]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t-\n", id, n.Paths, n.Shapes, n.Texts)
	}
	tw.Flush()
}
