package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emberlabs/go-dating-backend/internal/domain"
	"github.com/emberlabs/go-dating-backend/internal/repo"
)

// newTestDB opens a fresh in-memory database per test, with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// mustProfile seeds a profile with sensible defaults, applying overrides.
func mustProfile(t *testing.T, db *gorm.DB, id string, mut ...func(*domain.Profile)) *domain.Profile {
	t.Helper()
	p := &domain.Profile{
		ID:           id,
		Name:         "User " + id,
		Age:          30,
		Gender:       "female",
		InterestedIn: "both",
		MinAge:       18,
		MaxAge:       99,
		LastActiveAt: time.Now().UTC(),
	}
	for _, fn := range mut {
		fn(p)
	}
	if err := repo.CreateProfile(context.Background(), db, p); err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
	return p
}

type pushedEvent struct {
	UserID  string
	Event   string
	Payload any
}

type roomEvent struct {
	MatchID string
	Event   string
	Payload any
}

// recordingPusher captures delivery calls and simulates presence.
type recordingPusher struct {
	mu       sync.Mutex
	personal []pushedEvent
	room     []roomEvent
	inRoom   map[string]map[string]bool
	online   map[string]bool
}

func newRecordingPusher() *recordingPusher {
	return &recordingPusher{
		inRoom: map[string]map[string]bool{},
		online: map[string]bool{},
	}
}

func (p *recordingPusher) PushToUser(userID, event string, payload any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.personal = append(p.personal, pushedEvent{UserID: userID, Event: event, Payload: payload})
	return p.online[userID]
}

func (p *recordingPusher) BroadcastRoom(matchID, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.room = append(p.room, roomEvent{MatchID: matchID, Event: event, Payload: payload})
}

func (p *recordingPusher) RoomHasUser(matchID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inRoom[matchID][userID]
}

func (p *recordingPusher) joinRoom(matchID, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inRoom[matchID] == nil {
		p.inRoom[matchID] = map[string]bool{}
	}
	p.inRoom[matchID][userID] = true
}

func (p *recordingPusher) personalEvents(userID string) []pushedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushedEvent
	for _, e := range p.personal {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPusher) roomEvents(event string) []roomEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []roomEvent
	for _, e := range p.room {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
