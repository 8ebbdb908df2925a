package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	TypeTrainingCreated = "training.created"
	TypeTrainingUpdated = "training.updated"
	TypeTrainingDeleted = "training.deleted"
	TypeUserCreated     = "user.created"
	TypeUserDeleted     = "user.deleted"
)

// AllTypes lists every event the services emit.
var AllTypes = []string{
	TypeTrainingCreated,
	TypeTrainingUpdated,
	TypeTrainingDeleted,
	TypeUserCreated,
	TypeUserDeleted,
}

// Change records who did what to which entity.
type Change struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   int64     `json:"actor_id"`
	SubjectID int64     `json:"subject_id"`
	// OwnerID is the owning employee for training events, zero otherwise.
	OwnerID int64 `json:"owner_id,omitempty"`
}

func NewChange(eventType string, actorID, subjectID, ownerID int64) *Change {
	return &Change{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		ActorID:   actorID,
		SubjectID: subjectID,
		OwnerID:   ownerID,
	}
}

func (c *Change) EventType() string     { return c.Type }
func (c *Change) EventID() string       { return c.ID }
func (c *Change) OccurredAt() time.Time { return c.Timestamp }

func (c *Change) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"actor_id":   c.ActorID,
		"subject_id": c.SubjectID,
	}
	if c.OwnerID != 0 {
		p["owner_id"] = c.OwnerID
	}
	return p
}

// SubscribeAuditLog writes one structured log line per change.
func SubscribeAuditLog(bus *Bus, logger *slog.Logger) {
	audit := logger.With("component", "audit")
	handler := func(_ context.Context, e Event) error {
		args := []any{"event_type", e.EventType(), "event_id", e.EventID(), "at", e.OccurredAt()}
		for k, v := range e.Payload() {
			args = append(args, k, v)
		}
		audit.Info("record changed", args...)
		return nil
	}
	for _, t := range AllTypes {
		bus.Subscribe(t, handler)
	}
}
