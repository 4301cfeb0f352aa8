// Package domain defines the persistence models for profiles, affinity
// decisions, matches, messages, and notifications. These types are mapped
// with GORM and form the core data layer of the dating backend.
package domain

import (
	"time"
)

// Affinity kinds. Each row in the affinities table records exactly one of
// these decisions from one user about another.
const (
	AffinityLike      = "like"
	AffinityDislike   = "dislike"
	AffinitySuperLike = "super_like"
	AffinityBlock     = "block"
)

// Match statuses. Matches are created directly in StatusMatched; the
// pending and expired values are reserved for future transitions and are
// never reached by the current flows (liveness is tracked via IsActive).
const (
	StatusPending = "pending"
	StatusMatched = "matched"
	StatusExpired = "expired"
)

// Notification types.
const (
	NotifMessage     = "message"
	NotifMatch       = "match"
	NotifLike        = "like"
	NotifSuperLike   = "super_like"
	NotifProfileView = "profile_view"
	NotifSystem      = "system"
)

// Subscription tiers mirrored from the external billing system. The core
// only reads the tier to decide super-like rate limiting.
const (
	TierFree    = "free"
	TierPremium = "premium"
	TierVIP     = "vip"
)

// MatchExpiry is the default lifetime written into Match.ExpiresAt at
// creation. The field is stored but not currently evaluated anywhere.
const MatchExpiry = 30 * 24 * time.Hour

// DeletedMessageBody is the tombstone text substituted for the content of a
// soft-deleted message.
const DeletedMessageBody = "This message was deleted"

// Profile is the read model projected from the User Directory. The core
// never creates or edits profiles beyond the activity markers maintained by
// the realtime layer (Online, LastActiveAt).
//
// Fields:
//   - ID: stable UUID primary key (char(36)), issued by the directory.
//   - Gender / InterestedIn: "male", "female", "other" / "male", "female", "both".
//   - Latitude / Longitude: optional coordinates; discovery degrades to a
//     sentinel distance when either is absent.
//   - Interests: free-form tags serialized as JSON.
//   - Smoking / Drinking / RelationshipGoal: lifestyle attributes compared
//     for exact-match scoring bonuses.
//   - MinAge / MaxAge / MaxDistanceKm: the owner's discovery preferences.
//   - SubscriptionTier: mirrored billing tier (free|premium|vip).
//   - Online / LastActiveAt: liveness markers updated on connect/disconnect.
type Profile struct {
	ID               string   `json:"id"                gorm:"type:char(36);primaryKey"`
	Name             string   `json:"name"              gorm:"type:varchar(128);not null"`
	Age              int      `json:"age"               gorm:"not null"`
	Gender           string   `json:"gender"            gorm:"type:varchar(16);not null;check:gender IN ('male','female','other')"`
	InterestedIn     string   `json:"interested_in"     gorm:"type:varchar(16);not null;check:interested_in IN ('male','female','both')"`
	Bio              string   `json:"bio"               gorm:"type:text"`
	Location         string   `json:"location"          gorm:"type:varchar(128)"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Interests        []string `json:"interests"         gorm:"serializer:json"`
	Smoking          string   `json:"smoking"           gorm:"type:varchar(32)"`
	Drinking         string   `json:"drinking"          gorm:"type:varchar(32)"`
	RelationshipGoal string   `json:"relationship_goal" gorm:"type:varchar(32)"`
	MinAge           int      `json:"min_age"           gorm:"default:18"`
	MaxAge           int      `json:"max_age"           gorm:"default:99"`
	MaxDistanceKm    *int     `json:"max_distance_km,omitempty"`
	SubscriptionTier string   `json:"subscription_tier" gorm:"type:varchar(16);not null;default:'free'"`
	Online           bool     `json:"online"            gorm:"default:false"`
	LastActiveAt     time.Time `json:"last_active_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Premium reports whether the profile's subscription tier is exempt from the
// super-like daily cap.
func (p *Profile) Premium() bool {
	return p.SubscriptionTier == TierPremium || p.SubscriptionTier == TierVIP
}

// HasLocation reports whether both coordinates are present.
func (p *Profile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Affinity records a single like/dislike/super-like/block decision made by
// UserID about TargetID. Rows are append-only: there is no retraction path,
// and the composite primary key guarantees at most one row per
// (user, target, kind) triple.
//
// Composite PK: (UserID, TargetID, Kind).
//
// Index idx_target_kind(target_id, kind) optimizes the reverse lookup used
// by mutual-like detection and "who blocked me" exclusion.
type Affinity struct {
	UserID    string    `json:"user_id"   gorm:"type:char(36);primaryKey"`
	TargetID  string    `json:"target_id" gorm:"type:char(36);primaryKey;index:idx_target_kind,priority:1"`
	Kind      string    `json:"kind"      gorm:"type:varchar(16);primaryKey;index:idx_target_kind,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Affinity.
func (Affinity) TableName() string { return "affinities" }

// Match is the undirected, symmetric relationship between exactly two users.
// Participants are stored in canonical order (UserLowID < UserHighID
// lexicographically) so that the unique index ux_match_pair enforces at most
// one row per unordered pair regardless of which like landed first.
//
// Lifecycle: created active when both directions of "like" exist; unmatch
// flips IsActive to false and never deletes the row. Status transitions
// beyond the initial "matched" value are reserved (see package constants).
type Match struct {
	ID            string     `json:"id"              gorm:"type:char(36);primaryKey"`
	UserLowID     string     `json:"user_low_id"     gorm:"type:char(36);not null;uniqueIndex:ux_match_pair,priority:1;index"`
	UserHighID    string     `json:"user_high_id"    gorm:"type:char(36);not null;uniqueIndex:ux_match_pair,priority:2;index"`
	Status        string     `json:"status"          gorm:"type:varchar(16);not null;default:'matched';check:status IN ('pending','matched','expired')"`
	IsActive      bool       `json:"is_active"       gorm:"not null;default:true"`
	MatchedAt     time.Time  `json:"matched_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Match.
func (Match) TableName() string { return "matches" }

// Has reports whether userID is one of the two participants.
func (m *Match) Has(userID string) bool {
	return m.UserLowID == userID || m.UserHighID == userID
}

// Other returns the participant that is not userID. It returns "" when
// userID is not a participant.
func (m *Match) Other(userID string) string {
	switch userID {
	case m.UserLowID:
		return m.UserHighID
	case m.UserHighID:
		return m.UserLowID
	}
	return ""
}

// PairKey returns the canonical (low, high) ordering of two user ids.
func PairKey(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Message is a single chat message within a match. Sender and receiver are
// always the two participants of the owning match; the receiver is "the
// other one" and is denormalized for unread queries.
//
// Edits are in-place (sender-only, within a 15-minute window) and flagged
// via IsEdited. Deletion is soft: IsDeleted is set and Content is replaced
// with DeletedMessageBody; the row itself is preserved.
type Message struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	MatchID    string     `json:"match_id"    gorm:"type:char(36);not null;index:idx_match_msgs,priority:1"`
	SenderID   string     `json:"sender_id"   gorm:"type:char(36);not null"`
	ReceiverID string     `json:"receiver_id" gorm:"type:char(36);not null;index"`
	Content    string     `json:"content"     gorm:"type:text;not null"`
	Type       string     `json:"type"        gorm:"type:varchar(16);not null;default:'text'"`
	IsRead     bool       `json:"is_read"     gorm:"not null;default:false"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	IsEdited   bool       `json:"is_edited"   gorm:"not null;default:false"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	IsDeleted  bool       `json:"is_deleted"  gorm:"not null;default:false"`
	CreatedAt  time.Time  `json:"created_at"  gorm:"index:idx_match_msgs,priority:2"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Match is the owning conversation.
	Match Match `json:"-" gorm:"foreignKey:MatchID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Notification is an async event record fanned out to a recipient. Rows are
// never mutated except for the read flag, and never deleted.
type Notification struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_notifs,priority:1"`
	Type      string    `json:"type"       gorm:"type:varchar(16);not null"`
	Title     string    `json:"title"      gorm:"type:varchar(255);not null"`
	Body      string    `json:"body"       gorm:"type:text"`
	MatchID   *string   `json:"match_id,omitempty"   gorm:"type:char(36)"`
	SenderID  *string   `json:"sender_id,omitempty"  gorm:"type:char(36)"`
	MessageID *string   `json:"message_id,omitempty" gorm:"type:char(36)"`
	IsRead    bool      `json:"is_read"    gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_user_notifs,priority:2,sort:desc"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }
