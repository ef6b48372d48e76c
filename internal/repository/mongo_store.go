package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

const receiptsCollection = "receipts"

// MongoStore is a ReceiptStore over a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
	logger *slog.Logger
}

// OpenMongo connects, pings and ensures the created_at index.
func OpenMongo(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(receiptsCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	logger.Info("connected to MongoDB", "database", database)
	return &MongoStore{client: client, coll: coll, now: time.Now, logger: logger}, nil
}

func (m *MongoStore) Save(ctx context.Context, id string, r entity.Receipt, valid bool, reason string) error {
	doc := entity.StoredReceipt{
		ID:            id,
		Receipt:       r,
		Valid:         valid,
		InvalidReason: reason,
		CreatedAt:     m.now().UTC(),
	}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		m.logger.Error("store.receipt.save_failed", "id", id, "error", err)
		return common.WrapError(errors.Join(common.ErrDatabase, err), "save receipt")
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (*entity.StoredReceipt, error) {
	var out entity.StoredReceipt
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.NewNotFoundError("receipt " + id + " not found")
	}
	if err != nil {
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "get receipt")
	}
	return &out, nil
}

func (m *MongoStore) List(ctx context.Context, limit int) ([]*entity.StoredReceipt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "list receipts")
	}
	var out []*entity.StoredReceipt
	if err := cur.All(ctx, &out); err != nil {
		return nil, common.WrapError(errors.Join(common.ErrDatabase, err), "decode receipts")
	}
	return out, nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}
