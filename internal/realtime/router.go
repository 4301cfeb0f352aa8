package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/emberlabs/go-dating-backend/internal/repo"
	"github.com/emberlabs/go-dating-backend/internal/services"
)

// Router dispatches inbound client events to the chat and match services
// and keeps the directory's liveness markers in sync with connections.
//
// Every store call carries a bounded timeout; a timeout surfaces to the
// client as a retryable error event, never as silent loss.
type Router struct {
	Hub     *Hub
	DB      *gorm.DB
	Chat    *services.ChatService
	Matches *services.MatchService

	// OpTimeout bounds each store call made on behalf of a client event.
	// Defaults to 10 seconds.
	OpTimeout time.Duration
}

// NewRouter wires a Router.
func NewRouter(hub *Hub, db *gorm.DB, chat *services.ChatService, matches *services.MatchService) *Router {
	return &Router{Hub: hub, DB: db, Chat: chat, Matches: matches, OpTimeout: 10 * time.Second}
}

// handle processes one client event. Called serially per connection from
// the read pump.
func (r *Router) handle(c *Client, evt Event) {
	switch evt.Type {
	case EvtJoinMatch:
		r.joinMatch(c, evt.Payload)
	case EvtLeaveMatch:
		var ref roomRef
		if json.Unmarshal(evt.Payload, &ref) == nil && ref.MatchID != "" {
			r.Hub.leaveRoom(c, ref.MatchID)
		}
	case EvtSendMessage:
		r.sendMessage(c, evt.Payload)
	case EvtTypingStart:
		r.typing(c, evt.Payload, true)
	case EvtTypingStop:
		r.typing(c, evt.Payload, false)
	case EvtMarkRead:
		r.markRead(c, evt.Payload)
	default:
		c.sendError("bad_request", "unknown event type: "+evt.Type)
	}
}

// joinMatch verifies participation against the store on every join (never
// cached) before subscribing the connection to the room.
func (r *Router) joinMatch(c *Client, payload json.RawMessage) {
	var ref roomRef
	if err := json.Unmarshal(payload, &ref); err != nil || ref.MatchID == "" {
		c.sendError("bad_request", "match_id required")
		return
	}
	ctx, cancel := r.opCtx()
	defer cancel()

	if _, err := r.Matches.GetMatchFor(ctx, c.userID, ref.MatchID); err != nil {
		c.sendError(wsErrorCode(err), err.Error())
		return
	}
	r.Hub.joinRoom(c, ref.MatchID)
}

func (r *Router) sendMessage(c *Client, payload json.RawMessage) {
	var req sendMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.MatchID == "" {
		c.sendError("bad_request", "match_id and content required")
		return
	}
	ctx, cancel := r.opCtx()
	defer cancel()

	if _, err := r.Chat.Send(ctx, c.userID, req.MatchID, req.Content, req.Type); err != nil {
		c.sendError(wsErrorCode(err), err.Error())
	}
	// Room delivery and the personal-channel fallback happen inside
	// ChatService.Send; nothing more to do on success.
}

// typing relays a transient typing indicator to the room. Not persisted,
// never fanned out to personal channels, silently dropped when the sender
// is not in the room.
func (r *Router) typing(c *Client, payload json.RawMessage, active bool) {
	var ref roomRef
	if err := json.Unmarshal(payload, &ref); err != nil || ref.MatchID == "" {
		return
	}
	if !r.Hub.inRoom(c, ref.MatchID) {
		return
	}
	r.Hub.BroadcastRoom(ref.MatchID, EvtUserTyping, map[string]any{
		"match_id": ref.MatchID,
		"user_id":  c.userID,
		"typing":   active,
	})
}

func (r *Router) markRead(c *Client, payload json.RawMessage) {
	var ref roomRef
	if err := json.Unmarshal(payload, &ref); err != nil || ref.MatchID == "" {
		c.sendError("bad_request", "match_id required")
		return
	}
	ctx, cancel := r.opCtx()
	defer cancel()

	if _, err := r.Chat.MarkRead(ctx, c.userID, ref.MatchID); err != nil {
		c.sendError(wsErrorCode(err), err.Error())
	}
}

// connected marks the identity online in the directory.
func (r *Router) connected(c *Client) {
	ctx, cancel := r.opCtx()
	defer cancel()
	if err := repo.SetPresence(ctx, r.DB, c.userID, true); err != nil {
		c.log.Warn().Err(err).Msg("set online marker")
	}
}

// disconnected updates the last-active/online markers once the user's last
// connection is gone. Room state needs no cleanup beyond what unregister
// already removed.
func (r *Router) disconnected(c *Client) {
	if r.Hub.IsOnline(c.userID) {
		return // another connection remains
	}
	ctx, cancel := r.opCtx()
	defer cancel()
	if err := repo.SetPresence(ctx, r.DB, c.userID, false); err != nil {
		c.log.Warn().Err(err).Msg("set offline marker")
	}
}

func (r *Router) opCtx() (context.Context, context.CancelFunc) {
	timeout := r.OpTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// wsErrorCode maps service errors to the stable codes carried in error
// events, mirroring the HTTP taxonomy.
func wsErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrMessageForbidden):
		return "forbidden"
	case errors.Is(err, services.ErrMatchInactive),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrInvalidMessageType):
		return "bad_request"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal_error"
	}
}
