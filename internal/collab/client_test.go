package collab

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name string
		data string
		ok   bool
	}{
		{"input", `{"type":"pointer","payload":{"phase":"down"}}`, true},
		{"missing type", `{"payload":{}}`, false},
		{"not json", `pointer`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := decodeMessage([]byte(tt.data))
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, "pointer", msg.Type)
			}
		})
	}
}

func TestIsClosure(t *testing.T) {
	assert.True(t, isClosure(errClientClosed))
	assert.True(t, isClosure(fmt.Errorf("read: %w", context.Canceled)))
	assert.False(t, isClosure(errors.New("connection reset")))
}

func TestClosedClientDropsMessages(t *testing.T) {
	c := NewClient(nil, nil, "user_a", "A", "board_1", "a")
	c.close()
	c.close()
	c.sendError("late")

	_, ok := <-c.send
	assert.False(t, ok)
}
