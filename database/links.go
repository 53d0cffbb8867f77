package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"linktrackr/models"
	"linktrackr/services"
)

// LinkStore persists Link documents, click histories embedded.
// It implements services.LinkStore.
type LinkStore struct {
	coll *mongo.Collection
}

func NewLinkStore(db *mongo.Database) *LinkStore {
	return &LinkStore{coll: db.Collection(linksCollection)}
}

func (s *LinkStore) Insert(ctx context.Context, link *models.Link) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, link)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		link.ID = id
	}
	return nil
}

func (s *LinkStore) FindByShortID(ctx context.Context, shortID string) (*models.Link, error) {
	return s.findOne(ctx, bson.M{"shortId": shortID})
}

func (s *LinkStore) FindOwned(ctx context.Context, shortID string, userID primitive.ObjectID) (*models.Link, error) {
	return s.findOne(ctx, bson.M{"shortId": shortID, "userId": userID})
}

func (s *LinkStore) findOne(ctx context.Context, filter bson.M) (*models.Link, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var link models.Link
	err := s.coll.FindOne(ctx, filter).Decode(&link)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *LinkStore) DeleteOwned(ctx context.Context, shortID string, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"shortId": shortID, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

// ListByUser fetches one page of a user's links, newest first, projecting the
// click array down to its size so histories never cross the wire.
func (s *LinkStore) ListByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]models.LinkSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{
			"shortId":     1,
			"originalUrl": 1,
			"createdAt":   1,
			"totalClicks": bson.M{"$size": bson.M{"$ifNull": bson.A{"$clicks", bson.A{}}}},
		})

	cur, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	summaries := []models.LinkSummary{}
	if err := cur.All(ctx, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *LinkStore) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.coll.CountDocuments(ctx, bson.M{"userId": userID})
}

func (s *LinkStore) Exists(ctx context.Context, shortID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	count, err := s.coll.CountDocuments(ctx, bson.M{"shortId": shortID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AppendClick pushes one event onto the link's click array. The push is a
// single-document update, so concurrent clicks interleave without loss.
func (s *LinkStore) AppendClick(ctx context.Context, shortID string, click models.ClickEvent) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"shortId": shortID},
		bson.M{"$push": bson.M{"clicks": click}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
