package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"
)

// PresenceManager keeps the last cursor reported by every client in a
// room. Entries are per client, so one user with two tabs shows two
// cursors.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

// Update records p for clientID. A payload without a cursor keeps the
// previous cursor, so clients can report a context change on its own.
func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if p.Cursor == nil {
		if prev, ok := pm.presences[clientID]; ok && prev.ContextID == p.ContextID {
			p.Cursor = prev.Cursor
		}
	}
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

// StateMessage returns the presence of every client except excludeClientID.
func (pm *PresenceManager) StateMessage(excludeClientID string) *Message {
	all := pm.GetAll()
	delete(all, excludeClientID)
	payload, err := json.Marshal(PresenceStatePayload{Presences: all})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
