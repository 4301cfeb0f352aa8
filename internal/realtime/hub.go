package realtime

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub is the per-process presence registry: which identities hold live
// connections and which conversation rooms each connection has joined.
//
// State is process-local by design. Horizontally scaled deployments must
// either pin a conversation's participants to one instance or replace the
// channels with a shared broker; within one instance every method is safe
// for concurrent use.
type Hub struct {
	mu sync.RWMutex
	// users is the personal channel: every live connection per user id.
	users map[string]map[*Client]struct{}
	// rooms maps match id to the connections joined to its room.
	rooms map[string]map[*Client]struct{}

	log zerolog.Logger
}

// NewHub constructs an empty registry.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		users: make(map[string]map[*Client]struct{}),
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

// register admits a connection and subscribes it to its user's personal
// channel.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.users[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[c.userID] = set
	}
	set[c] = struct{}{}
	h.log.Debug().Str("user_id", c.userID).Int("connections", len(set)).Msg("realtime connection admitted")
}

// unregister removes a connection from its personal channel and every room
// it joined. Room membership of the user's other connections is untouched.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.users[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.userID)
		}
	}
	for matchID := range c.rooms {
		h.dropFromRoom(c, matchID)
	}
	close(c.send)
	h.log.Debug().Str("user_id", c.userID).Msg("realtime connection closed")
}

// joinRoom subscribes the connection to a match's room. Participation must
// already be verified by the caller.
func (h *Hub) joinRoom(c *Client, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[matchID]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[matchID] = set
	}
	set[c] = struct{}{}
	c.rooms[matchID] = struct{}{}
}

// leaveRoom unsubscribes the connection from a match's room.
func (h *Hub) leaveRoom(c *Client, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromRoom(c, matchID)
}

// dropFromRoom removes the connection from one room. Callers hold h.mu.
func (h *Hub) dropFromRoom(c *Client, matchID string) {
	delete(c.rooms, matchID)
	if set, ok := h.rooms[matchID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, matchID)
		}
	}
}

// inRoom reports whether the connection is currently joined to the room.
func (h *Hub) inRoom(c *Client, matchID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[matchID]
	return ok
}

// PushToUser emits an event on every connection in the user's personal
// channel. Delivery to a saturated connection is dropped, never blocked on.
// Returns true when at least one connection accepted the event.
func (h *Hub) PushToUser(userID, event string, payload any) bool {
	data, err := encode(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode push")
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := false
	for c := range h.users[userID] {
		if c.trySend(data) {
			delivered = true
		} else {
			h.log.Warn().Str("user_id", userID).Str("event", event).Msg("personal push dropped, connection saturated")
		}
	}
	return delivered
}

// BroadcastRoom emits an event to every connection joined to the match's
// room. Saturated connections are skipped.
func (h *Hub) BroadcastRoom(matchID, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode broadcast")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[matchID] {
		if !c.trySend(data) {
			h.log.Warn().Str("match_id", matchID).Str("event", event).Msg("room event dropped, connection saturated")
		}
	}
}

// RoomHasUser reports whether the user has at least one connection joined
// to the match's room. Drives the personal-channel fallback for message
// notifications.
func (h *Hub) RoomHasUser(matchID, userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[matchID] {
		if c.userID == userID {
			return true
		}
	}
	return false
}

// IsOnline reports whether the user holds any live connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// ConnectionCount returns the number of live connections across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.users {
		n += len(set)
	}
	return n
}
