// Package realtime implements the presence registry and conversation
// router over persistent websocket connections. Each admitted connection is
// bound to a verified user identity, auto-subscribed to that user's
// personal channel, and may join one room per match.
package realtime

import "encoding/json"

// Client→server event types.
const (
	EvtJoinMatch   = "join_match"
	EvtLeaveMatch  = "leave_match"
	EvtSendMessage = "send_message"
	EvtTypingStart = "typing_start"
	EvtTypingStop  = "typing_stop"
	EvtMarkRead    = "mark_messages_read"
)

// Server→client event types.
const (
	EvtNewMessage   = "new_message"
	EvtMessageNotif = "message_notification"
	EvtUserTyping   = "user_typing"
	EvtMessagesRead = "messages_read"
	EvtError        = "error"
)

// Event is the wire envelope in both directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// roomRef is the payload of join_match, leave_match, typing and read
// events.
type roomRef struct {
	MatchID string `json:"match_id"`
}

// sendMessagePayload is the payload of send_message.
type sendMessagePayload struct {
	MatchID string `json:"match_id"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// errorPayload is the payload of server error events.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encode marshals an outbound envelope once so it can be fanned out to any
// number of connections without re-serializing.
func encode(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}
