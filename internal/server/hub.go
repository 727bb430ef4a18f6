package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/patrickprogramme/cakeplayer/internal/playback"
)

// Message est l'enveloppe envoyée aux clients WebSocket.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub diffuse les vues du controller à tous les clients connectés.
// Chaque client ne reçoit que la dernière vue : les vues intermédiaires
// sont écrasées quand le client est limité par son rate.Limiter.
type Hub struct {
	ctrl    *playback.Controller
	log     *slog.Logger
	hz      float64
	origins []string

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
	unsub   func()
}

type client struct {
	id      string
	conn    *websocket.Conn
	limiter *rate.Limiter
	notify  chan struct{}

	mu     sync.Mutex
	latest playback.View
}

func newHub(ctrl *playback.Controller) *Hub {
	h := &Hub{
		ctrl:    ctrl,
		log:     slog.Default(),
		clients: make(map[string]*client),
	}
	h.unsub = ctrl.Subscribe(h.broadcast)
	return h
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close déconnecte tous les clients et se désabonne du controller.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	h.unsub()
	for _, c := range clients {
		c.conn.Close(websocket.StatusGoingAway, "arrêt du serveur")
	}
}

func (h *Hub) broadcast(v playback.View) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.push(v)
	}
}

// push garde la vue la plus récente : la vue initiale lue à la connexion peut
// arriver après un broadcast plus récent.
func (c *client) push(v playback.View) {
	c.mu.Lock()
	if v.Seq < c.latest.Seq {
		c.mu.Unlock()
		return
	}
	c.latest = v
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *client) snapshot() playback.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(h.origins),
	})
	if err != nil {
		h.log.Warn("websocket refusé", "err", err)
		return
	}

	limit := rate.Inf
	if h.hz > 0 {
		limit = rate.Limit(h.hz)
	}
	c := &client{
		id:      uuid.NewString(),
		conn:    conn,
		limiter: rate.NewLimiter(limit, 1),
		notify:  make(chan struct{}, 1),
	}

	if !h.add(c) {
		conn.Close(websocket.StatusGoingAway, "arrêt du serveur")
		return
	}
	defer h.remove(c)
	h.log.Info("client websocket connecté", "client", c.id)

	// le client reçoit l'état courant dès la connexion
	c.push(h.ctrl.View())

	// les messages entrants sont ignorés ; ctx tombe quand le client part
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			h.log.Info("client websocket déconnecté", "client", c.id)
			return
		case <-c.notify:
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}
		if err := wsjson.Write(ctx, conn, Message{Event: "state", Data: c.snapshot()}); err != nil {
			h.log.Debug("écriture websocket", "client", c.id, "err", err)
			return
		}
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.conn.Close(websocket.StatusNormalClosure, "")
}

// originPatterns convertit les origines CORS ("http://localhost:*") en motifs
// d'hôte attendus par websocket.Accept ("localhost:*").
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
