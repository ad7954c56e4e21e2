package store

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/NAKUL-XD/BitChat/data/structures"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

type MongoOptions struct {
	URI      string
	Username string
	Password string
	DB       string
	Direct   bool
}

func NewMongo(ctx context.Context, opt MongoOptions) (Store, error) {
	clientOptions := options.Client().
		ApplyURI(opt.URI).
		SetDirect(opt.Direct)

	if opt.Username != "" {
		clientOptions.SetAuth(options.Credential{
			Username: opt.Username,
			Password: opt.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	s := &mongoStore{
		client: client,
		db:     client.Database(opt.DB),
	}

	if err = s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	zap.S().Infow("mongo, ok",
		"db", opt.DB,
	)

	return s, nil
}

func (s *mongoStore) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionNameConversations: {
			{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		CollectionNameMessages: {
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		CollectionNameStatuses: {
			// expired posts are reaped by mongo
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}

	return nil
}

func (s *mongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}

	return err
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func (s *mongoStore) GetUser(ctx context.Context, id string) (structures.User, error) {
	user := structures.User{}

	err := s.db.Collection(CollectionNameUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&user)

	return user, notFound(err)
}

func (s *mongoStore) GetUsers(ctx context.Context, ids []string) ([]structures.User, error) {
	users := []structures.User{}
	if len(ids) == 0 {
		return users, nil
	}

	cur, err := s.db.Collection(CollectionNameUsers).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	if err = cur.All(ctx, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *mongoStore) SetUserPresence(ctx context.Context, id string, online bool, at time.Time) error {
	res, err := s.db.Collection(CollectionNameUsers).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"is_online": online,
			"last_seen": at,
		},
	})
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore) ListUsers(ctx context.Context, exclude string) ([]structures.User, error) {
	users := []structures.User{}

	cur, err := s.db.Collection(CollectionNameUsers).Find(ctx, bson.M{
		"_id": bson.M{"$ne": exclude},
	}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}

	if err = cur.All(ctx, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *mongoStore) UpsertConversation(ctx context.Context, a, b string) (structures.Conversation, error) {
	pair := structures.ParticipantPair(a, b)
	key := structures.PairKey(a, b)
	now := time.Now()

	conv := structures.Conversation{}

	err := s.db.Collection(CollectionNameConversations).FindOneAndUpdate(ctx, bson.M{
		"pair_key": key,
	}, bson.M{
		"$setOnInsert": bson.M{
			"_id":          newID(),
			"participants": pair[:],
			"pair_key":     key,
			"created_at":   now,
			"updated_at":   now,
		},
	}, options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).Decode(&conv)

	// two upserts racing on the unique pair key: the loser reads the winner's record
	if mongo.IsDuplicateKeyError(err) {
		err = s.db.Collection(CollectionNameConversations).FindOne(ctx, bson.M{"pair_key": key}).Decode(&conv)
	}

	return conv, notFound(err)
}

func (s *mongoStore) GetConversation(ctx context.Context, id string) (structures.Conversation, error) {
	conv := structures.Conversation{}

	err := s.db.Collection(CollectionNameConversations).FindOne(ctx, bson.M{"_id": id}).Decode(&conv)

	return conv, notFound(err)
}

func (s *mongoStore) ListConversations(ctx context.Context, participant string) ([]structures.Conversation, error) {
	result := []structures.Conversation{}

	cur, err := s.db.Collection(CollectionNameConversations).Find(ctx, bson.M{
		"participants": participant,
	}, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}

	if err = cur.All(ctx, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *mongoStore) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	res, err := s.db.Collection(CollectionNameConversations).UpdateOne(ctx, bson.M{"_id": conversationID}, bson.M{
		"$set": bson.M{
			"last_message_id": messageID,
			"updated_at":      at,
		},
	})
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore) InsertMessage(ctx context.Context, msg structures.Message) (structures.Message, error) {
	msg = prepareMessage(msg, newID(), time.Now())

	if _, err := s.db.Collection(CollectionNameMessages).InsertOne(ctx, msg); err != nil {
		return structures.Message{}, err
	}

	return msg, nil
}

func (s *mongoStore) GetMessage(ctx context.Context, id string) (structures.Message, error) {
	msg := structures.Message{}

	err := s.db.Collection(CollectionNameMessages).FindOne(ctx, bson.M{"_id": id}).Decode(&msg)

	return msg, notFound(err)
}

func (s *mongoStore) ListMessages(ctx context.Context, conversationID string) ([]structures.Message, error) {
	result := []structures.Message{}

	cur, err := s.db.Collection(CollectionNameMessages).Find(ctx, bson.M{
		"conversation_id": conversationID,
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}

	if err = cur.All(ctx, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *mongoStore) CountUnread(ctx context.Context, conversationID, receiver string) (int64, error) {
	return s.db.Collection(CollectionNameMessages).CountDocuments(ctx, bson.M{
		"conversation_id": conversationID,
		"receiver_id":     receiver,
		"status": bson.M{"$in": []structures.DeliveryStatus{
			structures.DeliveryStatusSent,
			structures.DeliveryStatusDelivered,
		}},
	})
}

func (s *mongoStore) AdvanceStatus(ctx context.Context, id string, status structures.DeliveryStatus) (structures.Message, bool, error) {
	msg := structures.Message{}

	err := s.db.Collection(CollectionNameMessages).FindOneAndUpdate(ctx, bson.M{
		"_id":    id,
		"status": bson.M{"$in": status.Lower()},
	}, bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&msg)
	if err == nil {
		return msg, true, nil
	}

	if !goerrors.Is(err, mongo.ErrNoDocuments) {
		return msg, false, err
	}

	// either missing or already at or past the requested status
	msg, err = s.GetMessage(ctx, id)

	return msg, false, err
}

func (s *mongoStore) SwapReactions(ctx context.Context, id string, rev int64, reactions []structures.Reaction) (structures.Message, error) {
	if reactions == nil {
		reactions = []structures.Reaction{}
	}

	msg := structures.Message{}

	err := s.db.Collection(CollectionNameMessages).FindOneAndUpdate(ctx, bson.M{
		"_id": id,
		"rev": rev,
	}, bson.M{
		"$set": bson.M{
			"reactions":  reactions,
			"updated_at": time.Now(),
		},
		"$inc": bson.M{"rev": 1},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&msg)
	if err == nil {
		return msg, nil
	}

	if !goerrors.Is(err, mongo.ErrNoDocuments) {
		return msg, err
	}

	if _, err = s.GetMessage(ctx, id); err != nil {
		return msg, err
	}

	return msg, ErrConflict
}

func (s *mongoStore) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.Collection(CollectionNameMessages).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore) InsertStatus(ctx context.Context, status structures.StatusPost) (structures.StatusPost, error) {
	status = prepareStatus(status, newID(), time.Now())

	if _, err := s.db.Collection(CollectionNameStatuses).InsertOne(ctx, status); err != nil {
		return structures.StatusPost{}, err
	}

	return status, nil
}

func (s *mongoStore) GetStatus(ctx context.Context, id string) (structures.StatusPost, error) {
	status := structures.StatusPost{}

	err := s.db.Collection(CollectionNameStatuses).FindOne(ctx, bson.M{"_id": id}).Decode(&status)

	return status, notFound(err)
}

func (s *mongoStore) ListActiveStatuses(ctx context.Context, now time.Time) ([]structures.StatusPost, error) {
	result := []structures.StatusPost{}

	cur, err := s.db.Collection(CollectionNameStatuses).Find(ctx, bson.M{
		"expires_at": bson.M{"$gt": now},
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}

	if err = cur.All(ctx, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *mongoStore) AddStatusViewer(ctx context.Context, id, viewer string) (structures.StatusPost, error) {
	status := structures.StatusPost{}

	err := s.db.Collection(CollectionNameStatuses).FindOneAndUpdate(ctx, bson.M{
		"_id": id,
	}, bson.M{
		"$addToSet": bson.M{"viewers": viewer},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&status)

	return status, notFound(err)
}

func (s *mongoStore) DeleteStatus(ctx context.Context, id string) error {
	res, err := s.db.Collection(CollectionNameStatuses).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
