package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/2beens/repcoach/internal/session"
	"github.com/2beens/repcoach/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	channelPrefix = "repcoach:live:"
	outboxSize    = 256
	viewerBuffer  = 64
)

var ErrSubscriptionClosed = errors.New("live: redis subscription closed")

// Viewer receives the snapshots of one session.
type Viewer struct {
	key  string
	send chan []byte
	once sync.Once
}

func (v *Viewer) Messages() <-chan []byte {
	return v.send
}

type outgoing struct {
	key     string
	payload []byte
}

// Hub fans session snapshots out to websocket viewers. With a redis client
// the snapshots travel through redis pub/sub, so a viewer connected to one
// instance sees sessions running on another.
type Hub struct {
	redis   *redis.Client
	metrics *metrics.Manager
	outbox  chan outgoing
	ready   chan struct{}

	mu      sync.RWMutex
	viewers map[string]map[*Viewer]struct{}
}

func NewHub(redisClient *redis.Client, metricsManager *metrics.Manager) *Hub {
	return &Hub{
		redis:   redisClient,
		metrics: metricsManager,
		outbox:  make(chan outgoing, outboxSize),
		ready:   make(chan struct{}),
		viewers: map[string]map[*Viewer]struct{}{},
	}
}

// StreamKey identifies a session's stream; the owner is part of it so
// viewers only ever get their own sessions.
func StreamKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

func (h *Hub) Register(key string) *Viewer {
	v := &Viewer{
		key:  key,
		send: make(chan []byte, viewerBuffer),
	}

	h.mu.Lock()
	if h.viewers[key] == nil {
		h.viewers[key] = map[*Viewer]struct{}{}
	}
	h.viewers[key][v] = struct{}{}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.GaugeLiveViewers.Inc()
	}
	return v
}

// Unregister removes the viewer and closes its channel. Safe to call twice.
func (h *Hub) Unregister(v *Viewer) {
	v.once.Do(func() {
		h.mu.Lock()
		if keyViewers, ok := h.viewers[v.key]; ok {
			delete(keyViewers, v)
			if len(keyViewers) == 0 {
				delete(h.viewers, v.key)
			}
		}
		close(v.send)
		h.mu.Unlock()

		if h.metrics != nil {
			h.metrics.GaugeLiveViewers.Dec()
		}
	})
}

func (h *Hub) ViewerCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers[key])
}

// OnState is a session.StateHandler. It never blocks: when the outbox is
// full the snapshot is dropped, the next one supersedes it anyway.
func (h *Hub) OnState(snap session.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Errorf("live: marshal snapshot of session %s: %s", snap.SessionID, err)
		return
	}
	h.Publish(StreamKey(snap.UserID, snap.SessionID), payload)
}

func (h *Hub) Publish(key string, payload []byte) {
	select {
	case h.outbox <- outgoing{key: key, payload: payload}:
	default:
		log.Warnf("live: outbox full, dropping message for %s", key)
	}
}

// Ready is closed once Run is able to deliver messages.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

// Run moves messages from the outbox to the viewers until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	var incoming <-chan *redis.Message
	if h.redis != nil {
		pubsub := h.redis.PSubscribe(ctx, channelPrefix+"*")
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Debugf("live: close subscription: %s", err)
			}
		}()
		if _, err := pubsub.Receive(ctx); err != nil {
			return fmt.Errorf("live: subscribe: %w", err)
		}
		incoming = pubsub.Channel()
	}
	close(h.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-h.outbox:
			if h.redis == nil {
				h.deliver(msg.key, msg.payload)
				continue
			}
			if err := h.redis.Publish(ctx, channelPrefix+msg.key, msg.payload).Err(); err != nil {
				log.Errorf("live: redis publish for %s: %s", msg.key, err)
			}
		case msg, ok := <-incoming:
			if !ok {
				return ErrSubscriptionClosed
			}
			h.deliver(strings.TrimPrefix(msg.Channel, channelPrefix), []byte(msg.Payload))
		}
	}
}

func (h *Hub) deliver(key string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for v := range h.viewers[key] {
		select {
		case v.send <- payload:
			if h.metrics != nil {
				h.metrics.CounterLiveMessages.Inc()
			}
		default:
			// slow viewer
		}
	}
}
