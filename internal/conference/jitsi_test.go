package conference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewJitsiClient_RejectsBadURL(t *testing.T) {
	_, err := NewJitsiClient("ftp://meet.example.org", false, zap.NewNop())
	assert.Error(t, err)

	_, err = NewJitsiClient("://broken", false, zap.NewNop())
	assert.Error(t, err)
}

func TestJitsiClient_CreateRoomWithoutCheck(t *testing.T) {
	c, err := NewJitsiClient("https://meet.example.org/school", false, zap.NewNop())
	require.NoError(t, err)

	room, err := c.CreateRoom(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", room.MeetingID)
	assert.Equal(t, "https://meet.example.org/school/abc-123", room.URL)

	_, err = c.CreateRoom(context.Background(), "")
	assert.Error(t, err)

	assert.NoError(t, c.Dispose(context.Background(), "abc-123"))
}

func TestJitsiClient_ChecksServer(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	c, err := NewJitsiClient(srv.URL, true, zap.NewNop())
	require.NoError(t, err)

	room, err := c.CreateRoom(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/room-1", room.URL)

	status.Store(http.StatusBadGateway)
	_, err = c.CreateRoom(context.Background(), "room-1")
	assert.ErrorContains(t, err, "unavailable")
}

func TestJitsiClient_CheckHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := NewJitsiClient(srv.URL, true, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.CreateRoom(ctx, "room-1")
	assert.ErrorIs(t, err, context.Canceled)
}
