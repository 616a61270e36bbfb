package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inamate/nestboard/internal/document"
)

// WriteSVG renders sd and writes it as a file download named after name.
func WriteSVG(w http.ResponseWriter, name string, sd document.SceneData) {
	data := SVG(sd)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.svg"`, Filename(name)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("write svg export", "error", err)
	}
}

// Filename reduces name to a safe download file name.
func Filename(name string) string {
	if name == "" {
		name = "board"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
