package service

import (
	"ascendra_backend/pkg/logger"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	eventChannel = "social:events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventMessage 下发给客户端的领域事件
type EventMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// eventEnvelope Redis 广播用的信封，带目标用户
type eventEnvelope struct {
	UserID uint            `json:"userId"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

type eventClient struct {
	hub     *EventHub
	conn    *websocket.Conn
	send    chan []byte
	userID  uint
	limiter *rate.Limiter
}

// EventHub 按用户分发领域事件的 WebSocket 中心。
// 多实例部署时经 Redis pub/sub 扇出，单实例（或无Redis）时本地直投。
type EventHub struct {
	rdb        *redis.Client
	clients    map[uint]map[*eventClient]bool
	mu         sync.RWMutex
	register   chan *eventClient
	unregister chan *eventClient
	local      chan eventEnvelope
	done       chan struct{}
	stopOnce   sync.Once
}

func NewEventHub(rdb *redis.Client) *EventHub {
	return &EventHub{
		rdb:        rdb,
		clients:    make(map[uint]map[*eventClient]bool),
		register:   make(chan *eventClient),
		unregister: make(chan *eventClient),
		local:      make(chan eventEnvelope, 256),
		done:       make(chan struct{}),
	}
}

func (h *EventHub) Run() {
	if h.rdb != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*eventClient]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.userID]; ok {
				if conns[client] {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}
			h.mu.Unlock()

		case env := <-h.local:
			h.deliver(env)

		case <-h.done:
			h.mu.Lock()
			for _, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
			}
			h.clients = make(map[uint]map[*eventClient]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *EventHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Publish 实现 EventPublisher。有Redis走广播，否则本地直投。
func (h *EventHub) Publish(userID uint, event string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Log.Error("Failed to marshal event payload", zap.Error(err), zap.String("event", event))
		return
	}
	env := eventEnvelope{UserID: userID, Event: event, Data: raw}

	if h.rdb != nil {
		payload, _ := json.Marshal(env)
		if err := h.rdb.Publish(context.Background(), eventChannel, payload).Err(); err != nil {
			logger.Log.Error("Failed to publish event to redis", zap.Error(err))
		}
		return
	}

	select {
	case h.local <- env:
	default:
		logger.Log.Warn("Event hub local queue full, dropping event", zap.String("event", event))
	}
}

func (h *EventHub) subscribeRedis() {
	sub := h.rdb.Subscribe(context.Background(), eventChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env eventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				continue
			}
			select {
			case h.local <- env:
			default:
			}
		case <-h.done:
			return
		}
	}
}

func (h *EventHub) deliver(env eventEnvelope) {
	payload, err := json.Marshal(EventMessage{Event: env.Event, Data: env.Data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[env.UserID] {
		select {
		case client.send <- payload:
		default:
			// 慢消费者不阻塞分发
		}
	}
}

// ServeWS 升级连接并挂入事件中心
func (h *EventHub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &eventClient{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 64),
		userID:  userID,
		limiter: rate.NewLimiter(30, 50),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}

func (c *eventClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		// 事件流是单向的，客户端上行只用于保活
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.userID))
			}
			break
		}
		if !c.limiter.Allow() {
			continue
		}
	}
}

func (c *eventClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
