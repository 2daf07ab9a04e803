package realtime

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskfigma/internal/models"
	"taskfigma/internal/notify"
)

func TestComputeAcceptKey(t *testing.T) {
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", computeAcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

// readTextFrame reads one unmasked server frame from the client end of the pipe.
func readTextFrame(t *testing.T, r io.Reader) []byte {
	t.Helper()
	header := make([]byte, 2)
	_, err := io.ReadFull(r, header)
	require.NoError(t, err)
	require.Equal(t, byte(0x80|opText), header[0])
	length := int(header[1] & 0x7F)
	if length == 126 {
		ext := make([]byte, 2)
		_, err := io.ReadFull(r, ext)
		require.NoError(t, err)
		length = int(binary.BigEndian.Uint16(ext))
	}
	payload := make([]byte, length)
	_, err = io.ReadFull(r, payload)
	require.NoError(t, err)
	return payload
}

func TestHubBroadcastsToTaskSubscribers(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	hub := NewHub()
	conn := &Conn{conn: server}
	hub.Register("t1", conn)
	assert.Equal(t, 1, hub.Subscribers("t1"))
	assert.Equal(t, 0, hub.Subscribers("t2"))

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := notify.Event{
		Task: &models.Task{ID: "t1", Alias: "ALP-001", Version: 3},
		Activities: []models.Activity{
			models.NewActivity(models.ActionCommented, nil, models.StringPtr("hello"), models.User{ID: "u1", Name: "Alice"}, at),
		},
	}
	done := make(chan error, 1)
	go func() { done <- hub.Notify(context.Background(), ev) }()

	var msg struct {
		TaskID   string `json:"taskId"`
		Alias    string `json:"alias"`
		Version  int64  `json:"version"`
		Activity struct {
			Action        string `json:"action"`
			Current       string `json:"current"`
			ActionDisplay string `json:"actionDisplay"`
		} `json:"activity"`
	}
	require.NoError(t, json.Unmarshal(readTextFrame(t, client), &msg))
	require.NoError(t, <-done)

	assert.Equal(t, "t1", msg.TaskID)
	assert.Equal(t, "ALP-001", msg.Alias)
	assert.Equal(t, int64(3), msg.Version)
	assert.Equal(t, "commented", msg.Activity.Action)
	assert.Equal(t, "hello", msg.Activity.Current)
	assert.Equal(t, "added a comment", msg.Activity.ActionDisplay)

	require.NoError(t, hub.Notify(context.Background(), notify.Event{Task: &models.Task{ID: "other"}}))
}

func TestHubDropsBrokenConnections(t *testing.T) {
	server, client := net.Pipe()
	client.Close()

	hub := NewHub()
	hub.Register("t1", &Conn{conn: server})
	ev := notify.Event{
		Task:       &models.Task{ID: "t1"},
		Activities: []models.Activity{{Action: models.ActionTitleRenamed}},
	}
	require.NoError(t, hub.Notify(context.Background(), ev))
	assert.Equal(t, 0, hub.Subscribers("t1"))
}

func TestDrainAnswersPingAndStopsOnClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := &Conn{conn: server}

	done := make(chan error, 1)
	go func() { done <- conn.Drain() }()

	// masked ping with payload "hi"
	mask := []byte{1, 2, 3, 4}
	ping := []byte{0x80 | opPing, 0x80 | 2}
	ping = append(ping, mask...)
	ping = append(ping, 'h'^mask[0], 'i'^mask[1])
	_, err := client.Write(ping)
	require.NoError(t, err)

	pong := make([]byte, 4)
	_, err = io.ReadFull(client, pong)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80 | opPong, 2, 'h', 'i'}, pong)

	_, err = client.Write([]byte{0x80 | opClose, 0x80, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.ErrorIs(t, <-done, io.EOF)
}
