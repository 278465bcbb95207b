package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
)

const dailyReportsCollection = "daily_reports"

// Repository defines the interface for report storage.
type Repository interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
	RecentDailyReports(ctx context.Context, limit int64) ([]models.DailyReport, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// Connect dials MongoDB, verifies the connection and returns a repository on dbName.
func Connect(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return NewMongoDBRepository(client, dbName, logger), nil
}

// NewMongoDBRepository wraps an already connected client.
func NewMongoDBRepository(client *mongo.Client, dbName string, logger *zap.Logger) *MongoDBRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoDBRepository{
		client:     client,
		collection: client.Database(dbName).Collection(dailyReportsCollection),
		logger:     logger,
	}
}

// EnsureIndexes creates the unique index on the report date.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("date_unique"),
	})
	if err != nil {
		return fmt.Errorf("create daily report index: %w", err)
	}
	return nil
}

// SaveDailyReport stores report, replacing any earlier report for the same day
// so a rerun of the job does not duplicate it.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	filter := bson.D{{Key: "date", Value: report.Date}}
	opts := options.Replace().SetUpsert(true)

	res, err := r.collection.ReplaceOne(ctx, filter, report, opts)
	if err != nil {
		return fmt.Errorf("failed to save daily report: %w", err)
	}

	r.logger.Debug("daily report saved",
		zap.Time("date", report.Date),
		zap.Int64("matched", res.MatchedCount),
		zap.Int64("upserted", res.UpsertedCount))
	return nil
}

// RecentDailyReports returns up to limit archived reports, newest first.
func (r *MongoDBRepository) RecentDailyReports(ctx context.Context, limit int64) ([]models.DailyReport, error) {
	if limit <= 0 {
		limit = 30
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := []models.DailyReport{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode daily reports: %w", err)
	}
	for i := range reports {
		reports[i].Date = reports[i].Date.UTC()
	}
	return reports, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
