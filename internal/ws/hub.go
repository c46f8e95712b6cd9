package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wista110/sports-nurse-web-sub001/internal/goroutine"
	"github.com/wista110/sports-nurse-web-sub001/internal/logger"
)

// Hub управляет всеми WebSocket клиентами. Клиент подписывается на темы:
// свой userID и, опционально, вакансии, за которыми следит.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
}

type message struct {
	topic   uuid.UUID
	payload []byte
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.topic, msg.payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast отправляет событие всем подписчикам темы.
func (h *Hub) Broadcast(topic uuid.UUID, event string, data any) error {
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	h.broadcast <- message{topic: topic, payload: raw}
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range client.topics {
		if _, ok := h.clients[topic]; !ok {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range client.topics {
		if clients, ok := h.clients[topic]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.clients, topic)
			}
		}
	}
}

func (h *Hub) send(topic uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.send <- payload:
		default:
			// Медленный клиент отключается, чтобы не блокировать рассылку.
			c := client
			goroutine.SafeGo(func() {
				c.Close()
			})
		}
	}
}

// Notifier реализует рассылку доменных событий поверх хаба.
type Notifier struct {
	hub *Hub
}

// NewNotifier создаёт нотификатор.
func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// NotifyJobStatus рассылает смену статуса вакансии подписчикам.
func (n *Notifier) NotifyJobStatus(jobID uuid.UUID, status string) {
	if err := n.hub.Broadcast(jobID, "job.status_changed", map[string]any{
		"job_id": jobID,
		"status": status,
	}); err != nil {
		logger.WithComponent("ws").Warnf("не удалось отправить событие вакансии: %v", err)
	}
}

// NotifyPayout рассылает смену статуса выплаты медсестре.
func (n *Notifier) NotifyPayout(nurseID, payoutID uuid.UUID, status string) {
	if err := n.hub.Broadcast(nurseID, "payout.status_changed", map[string]any{
		"payout_id": payoutID,
		"status":    status,
	}); err != nil {
		logger.WithComponent("ws").Warnf("не удалось отправить событие выплаты: %v", err)
	}
}
