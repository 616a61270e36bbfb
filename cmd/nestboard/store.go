package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/inamate/nestboard/internal/board"
	"github.com/inamate/nestboard/internal/store"
	"github.com/inamate/nestboard/internal/typeid"
)

// localEmail owns every board the CLI creates.
const localEmail = "local@nestboard.invalid"

var importCmd = &cobra.Command{
	Use:   "import <board.json>",
	Short: "Store a board document in the local database",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards in the local database",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <board-id>",
	Short: "Summarize the newest version of a stored board",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func openLocal(ctx context.Context) (store.Store, string, error) {
	if dir := filepath.Dir(flagDB); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("create database directory: %w", err)
		}
	}
	st, err := store.Open(ctx, flagDB)
	if err != nil {
		return nil, "", err
	}
	owner, err := localOwner(ctx, st)
	if err != nil {
		st.Close()
		return nil, "", err
	}
	return st, owner, nil
}

// localOwner returns the id of the CLI user, creating it on first use.
func localOwner(ctx context.Context, st store.Store) (string, error) {
	u, err := st.GetUserByEmail(ctx, localEmail)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("find local user: %w", err)
	}
	u, err = st.CreateUser(ctx, store.User{
		ID:          typeid.NewUserID(),
		Email:       localEmail,
		DisplayName: "Local",
	})
	if err != nil {
		return "", fmt.Errorf("create local user: %w", err)
	}
	return u.ID, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := readBoard(args[0])
	if err != nil {
		return err
	}

	st, owner, err := openLocal(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := board.NewService(st)
	name := doc.Name
	if name == "" {
		name = "Untitled"
	}
	b, err := svc.Create(ctx, name, owner, false)
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	info, err := svc.SaveSnapshot(ctx, b.ID, owner, data)
	if err != nil {
		return err
	}

	return outputResult(cmd.OutOrStdout(), importResult{BoardID: b.ID, Name: b.Name, Version: info.Version})
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, owner, err := openLocal(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	boards, err := board.NewService(st).List(ctx, owner)
	if err != nil {
		return err
	}

	rows := make([]boardRow, len(boards))
	for i, b := range boards {
		rows[i] = boardRow{ID: b.ID, Name: b.Name, UpdatedAt: b.UpdatedAt}
	}
	return outputResult(cmd.OutOrStdout(), rows)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := typeid.Validate(args[0], typeid.PrefixBoard); err != nil {
		return err
	}

	st, owner, err := openLocal(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	doc, err := board.NewService(st).Document(ctx, args[0], owner)
	if err != nil {
		return err
	}
	return outputResult(cmd.OutOrStdout(), summarize(doc))
}
