package services

import (
	"net/http"
	"sync"
	"time"

	"oncult-backend/internal/dto"
	"oncult-backend/internal/metrics"
	"oncult-backend/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for the websocket endpoint is enforced by the router
		// middleware ahead of the upgrade.
		return true
	},
}

const (
	progressSendBuffer = 16
	writeWait          = 10 * time.Second
	pingPeriod         = 30 * time.Second
	pongWait           = 60 * time.Second
)

type progressConn struct {
	buyer common.Address
	conn  *websocket.Conn
	send  chan dto.ProgressMessage
}

// ProgressHub fans payment state transitions out to websocket
// subscribers. Each subscriber watches one buyer address; a payment's
// transitions go only to that buyer's connections. Implements
// ProgressSink.
type ProgressHub struct {
	mu    sync.RWMutex
	conns map[common.Address]map[*progressConn]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{conns: make(map[common.Address]map[*progressConn]struct{})}
}

// OnState delivers one transition to every connection subscribed to
// the buyer. Slow consumers are dropped rather than allowed to stall
// the payment flow.
func (h *ProgressHub) OnState(paymentID string, buyer common.Address, state models.PaymentState, detail string) {
	msg := dto.ProgressMessage{
		Type:      "payment_progress",
		PaymentID: paymentID,
		Buyer:     buyer.Hex(),
		State:     string(state),
		Detail:    detail,
		Timestamp: time.Now().Unix(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[buyer] {
		select {
		case c.send <- msg:
		default:
			logrus.WithField("buyer", buyer.Hex()).Warn("progress subscriber too slow, dropping connection")
			go h.drop(c)
		}
	}
}

// Serve upgrades the request and streams progress messages for the
// given buyer until the client disconnects.
func (h *ProgressHub) Serve(w http.ResponseWriter, r *http.Request, buyer common.Address) error {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &progressConn{
		buyer: buyer,
		conn:  ws,
		send:  make(chan dto.ProgressMessage, progressSendBuffer),
	}
	h.add(c)
	metrics.WebSocketConnections.Inc()

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

func (h *ProgressHub) add(c *progressConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.buyer] == nil {
		h.conns[c.buyer] = make(map[*progressConn]struct{})
	}
	h.conns[c.buyer][c] = struct{}{}
}

func (h *ProgressHub) drop(c *progressConn) {
	h.mu.Lock()
	set, ok := h.conns[c.buyer]
	if ok {
		if _, present := set[c]; present {
			delete(set, c)
			if len(set) == 0 {
				delete(h.conns, c.buyer)
			}
			metrics.WebSocketConnections.Dec()
		} else {
			ok = false
		}
	}
	h.mu.Unlock()
	if ok {
		close(c.send)
		c.conn.Close()
	}
}

func (h *ProgressHub) writePump(c *progressConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump drains incoming frames so pongs and close frames are
// processed; the stream is one-way otherwise.
func (h *ProgressHub) readPump(c *progressConn) {
	defer h.drop(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ActiveConnections reports the number of live subscribers.
func (h *ProgressHub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.conns {
		n += len(set)
	}
	return n
}
