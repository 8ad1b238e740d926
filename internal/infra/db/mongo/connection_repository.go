package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainconnection "github.com/sarvagya80/SarvTribe/internal/domain/connection"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
)

type ConnectionRepository struct {
	col *mongo.Collection
}

func NewConnectionRepository(db *mongo.Database) *ConnectionRepository {
	return &ConnectionRepository{col: db.Collection("connections")}
}

func (r *ConnectionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "from_user_id", Value: 1}, {Key: "to_user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *ConnectionRepository) Save(ctx context.Context, conn *domainconnection.Connection) error {
	doc := newConnectionDocument(conn)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	if mongo.IsDuplicateKeyError(err) {
		return domainconnection.ErrAlreadyExists
	}
	return err
}

func (r *ConnectionRepository) Between(ctx context.Context, a, b domainuser.ID) (*domainconnection.Connection, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"from_user_id": string(a), "to_user_id": string(b)},
		bson.M{"from_user_id": string(b), "to_user_id": string(a)},
	}}
	var doc connectionDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainconnection.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *ConnectionRepository) AcceptPending(ctx context.Context, fromUserID, toUserID domainuser.ID) (*domainconnection.Connection, error) {
	filter := bson.M{
		"from_user_id": string(fromUserID),
		"to_user_id":   string(toUserID),
		"status":       string(domainconnection.StatusPending),
	}
	update := bson.M{"$set": bson.M{
		"status":     string(domainconnection.StatusAccepted),
		"updated_at": time.Now().UnixMilli(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc connectionDocument
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainconnection.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

type connectionDocument struct {
	ID         string `bson:"_id"`
	FromUserID string `bson:"from_user_id"`
	ToUserID   string `bson:"to_user_id"`
	Status     string `bson:"status"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

func newConnectionDocument(c *domainconnection.Connection) connectionDocument {
	return connectionDocument{
		ID:         c.ID,
		FromUserID: string(c.FromUserID),
		ToUserID:   string(c.ToUserID),
		Status:     string(c.Status),
		CreatedAt:  c.CreatedAt.UnixMilli(),
		UpdatedAt:  c.UpdatedAt.UnixMilli(),
	}
}

func (d connectionDocument) toEntity() *domainconnection.Connection {
	return &domainconnection.Connection{
		ID:         d.ID,
		FromUserID: domainuser.ID(d.FromUserID),
		ToUserID:   domainuser.ID(d.ToUserID),
		Status:     domainconnection.Status(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
	}
}

var _ domainconnection.Repository = (*ConnectionRepository)(nil)
