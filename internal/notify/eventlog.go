package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types the progression core emits. External relays (the Telegram
// bot, dashboards) tail the event log; delivery is not this service's job.
const (
	EventPackageCompleted = "PackageCompleted"
	EventExamPassed       = "ExamPassed"
)

type Notifier interface {
	Emit(ctx context.Context, typ, key string, data any) error
}

type Event struct {
	Offset    int64
	SiteID    string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Emit(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		"local", typ, key, string(buf), time.Now().Unix())
	return err
}

// Nop drops events. Wiring stays uniform when no relay is configured.
type Nop struct{}

func (Nop) Emit(context.Context, string, string, any) error { return nil }
