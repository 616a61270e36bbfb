// Package typeid mints and checks the prefixed ids used across nestboard:
// board_..., user_..., snap_... and ncv_... for nested canvases.
package typeid

import (
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixBoard    = "board"
	PrefixSnapshot = "snap"
	PrefixCanvas   = "ncv"
)

var (
	ErrInvalid     = errors.New("invalid id")
	ErrWrongPrefix = errors.New("wrong id prefix")
)

func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewBoardID() string    { return New(PrefixBoard) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewCanvasID() string   { return New(PrefixCanvas) }

// Validate checks that id parses and carries want as its prefix.
func Validate(id, want string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalid, id, err)
	}
	if got := parsed.Prefix(); got != want {
		return fmt.Errorf("%w: %q has %q, want %q", ErrWrongPrefix, id, got, want)
	}
	return nil
}
