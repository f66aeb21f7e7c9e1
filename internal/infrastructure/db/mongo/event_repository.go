package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wishlist/account-service/internal/core/domain"
)

const sessionEventsCollection = "session_events"

// EventRepository implements ports.AuditRepository on the session_events
// collection. Tokens are never written to the audit trail.
type EventRepository struct {
	col *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{col: db.Collection(sessionEventsCollection)}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.SessionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"type":        string(event.Type),
		"username":    event.Username,
		"timestamp":   event.Timestamp.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.Actor != "" {
		doc["actor"] = event.Actor
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes indexes events by user and time for per-account history queries.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("username_timestamp"),
	})
	return err
}

type sessionEventDoc struct {
	Type      string    `bson:"type"`
	Username  string    `bson:"username"`
	Actor     string    `bson:"actor,omitempty"`
	Timestamp time.Time `bson:"timestamp"`
}

// ListByUsername implements ports.AuditReader.
func (r *EventRepository) ListByUsername(ctx context.Context, username string, limit int64) ([]domain.SessionEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{"username": username}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []sessionEventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	events := make([]domain.SessionEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, domain.SessionEvent{
			Type:      domain.SessionEventType(d.Type),
			Username:  d.Username,
			Actor:     d.Actor,
			Timestamp: d.Timestamp.UTC(),
		})
	}
	return events, nil
}
