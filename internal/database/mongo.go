package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the MongoDB backend. Embedded array changes use the native
// $push, positional $set and $pull operators; concurrent writers to the same
// owner are last-write-wins.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// NewMongoStore wraps an already connected database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{client: db.Client(), db: db, now: time.Now}
}

// ConnectMongo connects to uri, verifies the connection and ensures indexes.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	store := NewMongoStore(client.Database(dbName))
	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureIndexes creates the unique email index and the lookup indexes used by
// the synchronizer's embedded-array queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[Collection][]mongo.IndexModel{
		Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "token", Value: 1}}},
			{Keys: bson.D{{Key: "socialId", Value: 1}}},
			{Keys: bson.D{{Key: "shippings._id", Value: 1}}},
			{Keys: bson.D{{Key: "orders._id", Value: 1}}},
		},
		MenuClasses: {
			{Keys: bson.D{{Key: "menus._id", Value: 1}}},
		},
		Menus: {
			{Keys: bson.D{{Key: "menuClass._id", Value: 1}}},
		},
		Shippings: {
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		Orders: {
			{Keys: bson.D{{Key: "orderer._id", Value: 1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := s.coll(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("mongo: create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (s *MongoStore) coll(c Collection) *mongo.Collection {
	return s.db.Collection(string(c))
}

func (s *MongoStore) Insert(ctx context.Context, coll Collection, doc any) error {
	beforeInsert(doc, s.now())
	if _, err := s.coll(coll).InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, coll Collection, id primitive.ObjectID, out any) error {
	return translate(s.coll(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out))
}

func (s *MongoStore) FindOne(ctx context.Context, coll Collection, filter Filter, out any) error {
	return translate(s.coll(coll).FindOne(ctx, filterDoc(filter)).Decode(out))
}

func (s *MongoStore) Find(ctx context.Context, coll Collection, filter Filter, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll(coll).Find(ctx, filterDoc(filter), opts)
	if err != nil {
		return translate(err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return err
	}
	// an empty result lists as [] like the SQL backend, not null
	if slice := reflect.ValueOf(out).Elem(); slice.Kind() == reflect.Slice && slice.IsNil() {
		slice.Set(reflect.MakeSlice(slice.Type(), 0, 0))
	}
	return nil
}

func (s *MongoStore) UpdateByID(ctx context.Context, coll Collection, id primitive.ObjectID, set Fields, out any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := s.coll(coll).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M(withUpdatedAt(set, s.now()))},
		opts,
	)
	if err := res.Err(); err != nil {
		return translate(err)
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}

func (s *MongoStore) UpdateMany(ctx context.Context, coll Collection, filter Filter, set Fields) (int64, error) {
	res, err := s.coll(coll).UpdateMany(ctx, filterDoc(filter), bson.M{"$set": bson.M(withUpdatedAt(set, s.now()))})
	if err != nil {
		return 0, translate(err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) ReplaceByID(ctx context.Context, coll Collection, id primitive.ObjectID, doc any) error {
	touch(doc, s.now())
	res, err := s.coll(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, coll Collection, id primitive.ObjectID, out any) error {
	res := s.coll(coll).FindOneAndDelete(ctx, bson.M{"_id": id})
	if err := res.Err(); err != nil {
		return translate(err)
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}

func (s *MongoStore) DeleteMany(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	res, err := s.coll(coll).DeleteMany(ctx, filterDoc(filter))
	if err != nil {
		return 0, translate(err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) PushEmbedded(ctx context.Context, coll Collection, ownerID primitive.ObjectID, field string, elem any) error {
	res, err := s.coll(coll).UpdateOne(ctx,
		bson.M{"_id": ownerID},
		bson.M{
			"$push": bson.M{field: elem},
			"$set":  bson.M{"updatedAt": s.now()},
		},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetEmbedded(ctx context.Context, coll Collection, field string, elemID primitive.ObjectID, set Fields) (int64, error) {
	update := bson.M{"updatedAt": s.now()}
	for k, v := range set {
		update[field+".$."+k] = v
	}
	res, err := s.coll(coll).UpdateMany(ctx, bson.M{field + "._id": elemID}, bson.M{"$set": update})
	if err != nil {
		return 0, translate(err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) PullEmbedded(ctx context.Context, coll Collection, field string, elemID primitive.ObjectID) (int64, error) {
	res, err := s.coll(coll).UpdateMany(ctx,
		bson.M{field + "._id": elemID},
		bson.M{
			"$pull": bson.M{field: bson.M{"_id": elemID}},
			"$set":  bson.M{"updatedAt": s.now()},
		},
	)
	if err != nil {
		return 0, translate(err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func filterDoc(filter Filter) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return bson.M(filter)
}
