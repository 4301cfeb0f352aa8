// Package services defines the business logic for discovery, matching,
// chat, and notification fan-out. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// Affinity / match errors.
var (
	// ErrSelfReference is returned when a user attempts to like, dislike,
	// super-like, or block themselves. State is never mutated in this case.
	ErrSelfReference = errors.New("cannot target yourself")

	// ErrAlreadyDecided is returned when the acting user has already
	// recorded this decision about the target. Affinity rows are
	// append-only, so a repeat is a conflict, not an upsert.
	ErrAlreadyDecided = errors.New("decision already recorded")

	// ErrUserNotFound indicates that the target user does not exist in the
	// directory projection.
	ErrUserNotFound = errors.New("user not found")

	// ErrMatchNotFound indicates that the requested match does not exist.
	ErrMatchNotFound = errors.New("match not found")

	// ErrNotParticipant is returned when an authenticated caller is not one
	// of a match's two participants.
	ErrNotParticipant = errors.New("not a participant of this match")

	// ErrMatchInactive is returned when a message is sent to a match that
	// has been deactivated by an unmatch.
	ErrMatchInactive = errors.New("match is no longer active")

	// ErrSuperLikeLimit is returned when a non-premium user exceeds the
	// one-per-rolling-day super-like cap.
	ErrSuperLikeLimit = errors.New("super-like daily limit reached")
)

// Chat errors.
var (
	// ErrMessageNotFound indicates that the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrMessageForbidden covers every disallowed message mutation: editing
	// or deleting someone else's message, and editing outside the 15-minute
	// window. All three surface as the same error kind.
	ErrMessageForbidden = errors.New("not allowed to modify this message")

	// ErrEmptyMessage is returned when a send request carries no content.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when content exceeds the configured
	// maximum rune length.
	ErrMessageTooLong = errors.New("message too long")

	// ErrInvalidMessageType is returned when the message type is outside
	// the allowed set.
	ErrInvalidMessageType = errors.New("invalid message type")
)

// Notification errors.
var (
	// ErrNotificationNotFound indicates a missing notification or one owned
	// by a different recipient.
	ErrNotificationNotFound = errors.New("notification not found")
)
