package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub 起一个只做WS升级的测试服务器并以指定用户接入
func dialHub(t *testing.T, hub *EventHub, userID uint) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, hub.ServeWS(w, r, userID))
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) EventMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg EventMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

// TestEventHub_DeliversToTargetUser 事件只投递给目标用户的连接
func TestEventHub_DeliversToTargetUser(t *testing.T) {
	hub := NewEventHub(nil)
	go hub.Run()
	defer hub.Stop()

	alice := dialHub(t, hub, 1)
	bob := dialHub(t, hub, 2)

	// 等注册完成后再发布
	time.Sleep(50 * time.Millisecond)
	hub.Publish(1, EventRequestReceived, map[string]string{"from": "bob"})

	msg := readEvent(t, alice)
	assert.Equal(t, EventRequestReceived, msg.Event)

	// bob 不应收到任何消息
	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err)
}

// TestEventHub_FanOutToAllUserConnections 同一用户多端在线全部收到
func TestEventHub_FanOutToAllUserConnections(t *testing.T) {
	hub := NewEventHub(nil)
	go hub.Run()
	defer hub.Stop()

	first := dialHub(t, hub, 7)
	second := dialHub(t, hub, 7)

	time.Sleep(50 * time.Millisecond)
	hub.Publish(7, EventConnectionCreated, map[string]uint{"with": 9})

	assert.Equal(t, EventConnectionCreated, readEvent(t, first).Event)
	assert.Equal(t, EventConnectionCreated, readEvent(t, second).Event)
}

// TestEventHub_PublishWithoutListeners 无人在线时发布不报错不阻塞
func TestEventHub_PublishWithoutListeners(t *testing.T) {
	hub := NewEventHub(nil)
	go hub.Run()
	defer hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(99, EventRequestReceived, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked with no listeners")
	}
}
