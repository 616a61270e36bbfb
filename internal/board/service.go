package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/nestboard/internal/document"
	"github.com/inamate/nestboard/internal/store"
	"github.com/inamate/nestboard/internal/typeid"
)

var (
	ErrNotFound        = errors.New("board not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidDocument = errors.New("invalid document")
	// ErrBoardLive is returned when a board open in a live session would
	// be overwritten or removed behind the session's back.
	ErrBoardLive = errors.New("board is open in a live session")
)

// LiveBoards reports which boards have a live editing session.
type LiveBoards interface {
	IsOpen(boardID string) bool
}

type Service struct {
	store store.Store
	live  LiveBoards
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// SetLiveBoards makes SaveSnapshot and Delete refuse boards that l reports
// as open.
func (s *Service) SetLiveBoards(l LiveBoards) {
	s.live = l
}

func (s *Service) isLive(boardID string) bool {
	return s.live != nil && s.live.IsOpen(boardID)
}

type Board struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type SnapshotInfo struct {
	ID        string `json:"id"`
	BoardID   string `json:"boardId"`
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
}

// Create makes a board owned by ownerID and stores its first snapshot:
// an empty document, or the sample document when sample is set.
func (s *Service) Create(ctx context.Context, name, ownerID string, sample bool) (*Board, error) {
	boardID := typeid.NewBoardID()

	stored, err := s.store.CreateBoard(ctx, store.Board{
		ID:      boardID,
		Name:    name,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}

	var doc *document.Board
	if sample {
		doc = document.NewSampleBoard(boardID)
		doc.Name = name
	} else {
		doc = document.NewEmptyBoard(boardID, name)
		doc.CreatedAt = stored.CreatedAt.Format(time.RFC3339)
		doc.UpdatedAt = doc.CreatedAt
	}
	docJSON, err := json.Marshal(doc)
	if err == nil {
		_, err = s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), boardID, docJSON)
	}
	if err != nil {
		// A board without a snapshot cannot be opened; do not leave it listed.
		if delErr := s.store.DeleteBoard(ctx, boardID); delErr != nil {
			slog.Error("remove board without snapshot", "error", delErr, "board", boardID)
		}
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return toBoard(stored), nil
}

func (s *Service) Get(ctx context.Context, boardID, userID string) (*Board, error) {
	stored, err := s.authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	return toBoard(stored), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Board, error) {
	stored, err := s.store.ListBoards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}

	boards := make([]Board, len(stored))
	for i := range stored {
		boards[i] = *toBoard(&stored[i])
	}
	return boards, nil
}

func (s *Service) Delete(ctx context.Context, boardID, userID string) error {
	if _, err := s.authorize(ctx, boardID, userID); err != nil {
		return err
	}
	if s.isLive(boardID) {
		return ErrBoardLive
	}
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

// GetLatestSnapshot returns the newest stored document of the board as raw
// JSON.
func (s *Service) GetLatestSnapshot(ctx context.Context, boardID, userID string) (json.RawMessage, error) {
	if _, err := s.authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}
	snap, err := s.latest(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return snap.Document, nil
}

// SaveSnapshot validates data as a board document and stores it as the next
// version. Boards open in a live session are refused with ErrBoardLive,
// since the session would overwrite the snapshot on its next save.
func (s *Service) SaveSnapshot(ctx context.Context, boardID, userID string, data []byte) (*SnapshotInfo, error) {
	stored, err := s.authorize(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	if s.isLive(boardID) {
		return nil, ErrBoardLive
	}

	var doc document.Board
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	doc.ID = boardID
	doc.Name = stored.Name
	return s.save(ctx, &doc)
}

// Document returns the newest document of a board the user owns.
func (s *Service) Document(ctx context.Context, boardID, userID string) (*document.Board, error) {
	if _, err := s.authorize(ctx, boardID, userID); err != nil {
		return nil, err
	}
	return s.LoadDocument(ctx, boardID)
}

// LoadDocument returns the newest document of a board without an access
// check. Live sessions use it after authorizing the connection.
func (s *Service) LoadDocument(ctx context.Context, boardID string) (*document.Board, error) {
	snap, err := s.latest(ctx, boardID)
	if err != nil {
		return nil, err
	}
	var doc document.Board
	if err := json.Unmarshal(snap.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	doc.ID = boardID
	doc.Version = snap.Version
	doc.Normalize()
	return &doc, nil
}

// SaveDocument stores doc as the next version of boardID without an access
// check.
func (s *Service) SaveDocument(ctx context.Context, boardID string, doc *document.Board) error {
	doc.ID = boardID
	_, err := s.save(ctx, doc)
	return err
}

func (s *Service) save(ctx context.Context, doc *document.Board) (*SnapshotInfo, error) {
	doc.Normalize()
	doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	snap, err := s.store.CreateSnapshot(ctx, typeid.NewSnapshotID(), doc.ID, docJSON)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	doc.Version = snap.Version

	return &SnapshotInfo{
		ID:        snap.ID,
		BoardID:   snap.BoardID,
		Version:   snap.Version,
		CreatedAt: snap.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}, nil
}

func (s *Service) latest(ctx context.Context, boardID string) (*store.Snapshot, error) {
	snap, err := s.store.GetLatestSnapshot(ctx, boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

func (s *Service) authorize(ctx context.Context, boardID, userID string) (*store.Board, error) {
	stored, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	if stored.OwnerID != userID {
		return nil, ErrForbidden
	}
	return stored, nil
}

// Authorize reports whether userID may open boardID.
func (s *Service) Authorize(ctx context.Context, boardID, userID string) error {
	_, err := s.authorize(ctx, boardID, userID)
	return err
}

func toBoard(b *store.Board) *Board {
	return &Board{
		ID:        b.ID,
		Name:      b.Name,
		OwnerID:   b.OwnerID,
		CreatedAt: b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: b.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
