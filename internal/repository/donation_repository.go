package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDonationNotFound  = errors.New("donation not found")
	ErrDuplicateDonation = errors.New("donation already recorded")
)

// DonationRepository records completed checkouts.
type DonationRepository interface {
	SaveDonation(ctx context.Context, donation *domain.Donation) error
	GetDonation(ctx context.Context, id string) (*domain.Donation, error)
	// ListUnpublished and MarkPublished back the donation-completed outbox.
	ListUnpublished(ctx context.Context, completedBefore time.Time, limit int64) ([]*domain.Donation, error)
	MarkPublished(ctx context.Context, id string) error
}

type mongoDonationRepository struct {
	collection *mongo.Collection
}

func NewMongoDonationRepository(db *mongo.Database) DonationRepository {
	return &mongoDonationRepository{
		collection: db.Collection("donations"),
	}
}

func (m *mongoDonationRepository) SaveDonation(ctx context.Context, donation *domain.Donation) error {
	_, err := m.collection.InsertOne(ctx, donation)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateDonation
	}
	if err != nil {
		return fmt.Errorf("failed to save donation: %w", err)
	}
	return nil
}

func (m *mongoDonationRepository) GetDonation(ctx context.Context, id string) (*domain.Donation, error) {
	var donation domain.Donation

	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&donation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}

	return &donation, nil
}

// ListUnpublished returns receipts completed before the cutoff whose event
// has not been acknowledged, oldest first.
func (m *mongoDonationRepository) ListUnpublished(ctx context.Context, completedBefore time.Time, limit int64) ([]*domain.Donation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: 1}}).
		SetLimit(limit)

	filter := bson.M{
		"published":    false,
		"completed_at": bson.M{"$lt": completedBefore},
	}
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list unpublished donations: %w", err)
	}
	defer cursor.Close(ctx)

	var donations []*domain.Donation
	if err := cursor.All(ctx, &donations); err != nil {
		return nil, fmt.Errorf("failed to decode donations: %w", err)
	}
	return donations, nil
}

func (m *mongoDonationRepository) MarkPublished(ctx context.Context, id string) error {
	res, err := m.collection.UpdateByID(ctx, id, bson.M{"$set": bson.M{"published": true}})
	if err != nil {
		return fmt.Errorf("failed to mark donation %s published: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrDonationNotFound
	}
	return nil
}

func (m *mongoDonationRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "published", Value: 1}, {Key: "completed_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// EnsureIndexes creates the donation indexes when repo is backed by MongoDB.
func EnsureIndexes(ctx context.Context, repo DonationRepository) error {
	if m, ok := repo.(*mongoDonationRepository); ok {
		return m.CreateIndexes(ctx)
	}
	return nil
}
