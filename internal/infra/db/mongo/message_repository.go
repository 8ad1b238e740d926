package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainmessage "github.com/sarvagya80/SarvTribe/internal/domain/message"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
)

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection("messages")}
}

// EnsureIndexes creates the lookup indexes the chat queries lean on.
func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "from_user_id", Value: 1}, {Key: "to_user_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *MessageRepository) Save(ctx context.Context, msg *domainmessage.Message) error {
	doc := newMessageDocument(msg)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *MessageRepository) Between(ctx context.Context, userID, otherUserID domainuser.ID) ([]*domainmessage.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"from_user_id": string(userID), "to_user_id": string(otherUserID)},
		bson.M{"from_user_id": string(otherUserID), "to_user_id": string(userID)},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeMessages(ctx, cursor)
}

func (r *MessageRepository) MarkSeen(ctx context.Context, fromUserID, toUserID domainuser.ID) (int64, error) {
	filter := bson.M{
		"from_user_id": string(fromUserID),
		"to_user_id":   string(toUserID),
		"seen":         false,
	}
	res, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"seen": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// LatestPerCounterpart groups the user's messages by the other participant
// and keeps the newest document per group. The secondary _id sort makes the
// order stable when two conversations share a timestamp.
func (r *MessageRepository) LatestPerCounterpart(ctx context.Context, userID domainuser.ID) ([]*domainmessage.Message, error) {
	uid := string(userID)
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"from_user_id": uid},
			bson.M{"to_user_id": uid},
		}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$from_user_id", uid}},
				"$to_user_id",
				"$from_user_id",
			}},
			"lastMessage": bson.M{"$first": "$$ROOT"},
		}}},
		bson.D{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$lastMessage"}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodeMessages(ctx, cursor)
}

type messageDocument struct {
	ID         string `bson:"_id"`
	FromUserID string `bson:"from_user_id"`
	ToUserID   string `bson:"to_user_id"`
	Text       string `bson:"text"`
	MediaURL   string `bson:"media_url"`
	Kind       string `bson:"message_type"`
	Seen       bool   `bson:"seen"`
	CreatedAt  int64  `bson:"created_at"`
}

func newMessageDocument(m *domainmessage.Message) messageDocument {
	return messageDocument{
		ID:         m.ID,
		FromUserID: string(m.FromUserID),
		ToUserID:   string(m.ToUserID),
		Text:       m.Text,
		MediaURL:   m.MediaURL,
		Kind:       string(m.Kind),
		Seen:       m.Seen,
		CreatedAt:  m.CreatedAt.UnixMilli(),
	}
}

func (d messageDocument) toEntity() *domainmessage.Message {
	return &domainmessage.Message{
		ID:         d.ID,
		FromUserID: domainuser.ID(d.FromUserID),
		ToUserID:   domainuser.ID(d.ToUserID),
		Text:       d.Text,
		MediaURL:   d.MediaURL,
		Kind:       domainmessage.Kind(d.Kind),
		Seen:       d.Seen,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}
}

func decodeMessages(ctx context.Context, cursor *mongo.Cursor) ([]*domainmessage.Message, error) {
	defer cursor.Close(ctx)
	var out []*domainmessage.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainmessage.Repository = (*MessageRepository)(nil)
