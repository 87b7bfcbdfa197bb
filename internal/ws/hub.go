package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/lostfound-backend/internal/goroutine"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/metrics"
)

// Relay пересылает события между экземплярами сервиса.
type Relay interface {
	Publish(ctx context.Context, userID uuid.UUID, payload []byte) error
	Subscribe(ctx context.Context, deliver func(userID uuid.UUID, payload []byte)) error
}

// Hub управляет всеми WebSocket клиентами.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	relay      Relay
	ctx        context.Context
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

// Event формат сообщения, которое получает клиент.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewHub создаёт новый хаб.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		ctx:        ctx,
	}
}

// SetRelay подключает межсерверную доставку.
func (h *Hub) SetRelay(relay Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = relay
}

// Run запускает главный цикл хаба до отмены контекста.
func (h *Hub) Run() {
	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()

	if relay != nil {
		goroutine.DefaultRecoveryHandler.GoWithContext(h.ctx, "ws relay", func(ctx context.Context) {
			if err := relay.Subscribe(ctx, h.deliverLocal); err != nil {
				logger.Log.WithError(err).Error("ws: подписка на relay завершилась с ошибкой")
			}
		})
	}

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// BroadcastToUser отправляет событие всем подключениям пользователя.
// Доставка негарантированная: клиенты всё равно опрашивают API.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := json.Marshal(Event{Type: event, Data: data})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()

	if relay != nil {
		err := relay.Publish(h.ctx, userID, raw)
		if err == nil {
			return nil
		}
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"event":   event,
			"error":   err.Error(),
		}).Warn("ws: relay недоступен, доставляем локально")
	}

	h.deliverLocal(userID, raw)
	return nil
}

func (h *Hub) deliverLocal(userID uuid.UUID, payload []byte) {
	select {
	case h.broadcast <- message{userID: userID, payload: payload}:
	default:
		logger.Log.WithField("user_id", userID).Warn("ws: очередь рассылки переполнена, событие отброшено")
	}
}

// ClientCount количество активных подключений.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
	metrics.WSClients.Inc()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.closeSend()
			metrics.WSClients.Dec()
		}
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Медленный клиент: закрываем, он переподключится.
			c := client
			goroutine.SafeGo(c.Close)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			client.closeSend()
			metrics.WSClients.Dec()
		}
		delete(h.clients, userID)
	}
}
