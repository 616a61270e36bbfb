package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceManager(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("c1", &PresencePayload{UserID: "u1", Cursor: &CursorPos{X: 1, Y: 2}})
	pm.Update("c2", &PresencePayload{UserID: "u1", Cursor: &CursorPos{X: 9, Y: 9}, ContextID: "ncv_a"})

	all := pm.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "ncv_a", all["c2"].ContextID)

	// Same context, no cursor: the old cursor is kept.
	pm.Update("c1", &PresencePayload{UserID: "u1"})
	require.NotNil(t, pm.GetAll()["c1"].Cursor)
	assert.Equal(t, 1.0, pm.GetAll()["c1"].Cursor.X)

	// New context, no cursor: the cursor is dropped.
	pm.Update("c1", &PresencePayload{UserID: "u1", ContextID: "ncv_b"})
	assert.Nil(t, pm.GetAll()["c1"].Cursor)

	pm.Remove("c2")
	assert.Len(t, pm.GetAll(), 1)
}

func TestPresenceStateMessageExcludesReceiver(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("c1", &PresencePayload{UserID: "u1"})
	pm.Update("c2", &PresencePayload{UserID: "u2"})

	msg := pm.StateMessage("c1")
	require.NotNil(t, msg)
	assert.Equal(t, TypePresenceState, msg.Type)

	var p PresenceStatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Len(t, p.Presences, 1)
	assert.Contains(t, p.Presences, "c2")

	// The manager's own map is untouched.
	assert.Len(t, pm.GetAll(), 2)
}
