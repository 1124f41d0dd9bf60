package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const PriceHistoryCollection = "price_history"

// MongoPriceHistoryRepository keeps the append-only quote audit trail in MongoDB.
type MongoPriceHistoryRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoPriceHistoryRepository(db *mongo.Database, collection string, timeout time.Duration) *MongoPriceHistoryRepository {
	if collection == "" {
		collection = PriceHistoryCollection
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MongoPriceHistoryRepository{collection: db.Collection(collection), timeout: timeout}
}

func (r *MongoPriceHistoryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "flight_id", Value: 1},
			{Key: "seat_class", Value: 1},
			{Key: "calculated_at", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create price history index: %w", err)
	}
	return nil
}

func (r *MongoPriceHistoryRepository) Append(ctx context.Context, entry *domain.PriceHistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append price history: %w", err)
	}
	return nil
}

func (r *MongoPriceHistoryRepository) ListSince(ctx context.Context, flightID int64, class domain.SeatClass, since time.Time) ([]domain.PriceHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"flight_id":     flightID,
		"seat_class":    class,
		"calculated_at": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "calculated_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]domain.PriceHistoryEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode price history: %w", err)
	}
	return entries, nil
}

var _ PriceHistoryRepository = (*MongoPriceHistoryRepository)(nil)
