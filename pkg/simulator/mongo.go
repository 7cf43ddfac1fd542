package simulator

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/matzehuels/switchyard/pkg/switches"
)

// Defaults used when NewMongoStore gets no database in its URI.
const (
	DefaultMongoDatabase   = "switchyard"
	DefaultMongoCollection = "switches"
)

// MongoStore keeps one document per switch.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	ID       string  `bson:"_id"`
	Channel  *int    `bson:"channel"`
	Angle0   float64 `bson:"angle0"`
	Angle1   float64 `bson:"angle1"`
	UserName string  `bson:"user_name,omitempty"`
	Hidden   bool    `bson:"hidden,omitempty"`
	Position int     `bson:"last_state"`
}

func toMongo(rec Record) mongoRecord {
	doc := mongoRecord{
		ID:       rec.Config.ID,
		Angle0:   rec.Config.Angle0,
		Angle1:   rec.Config.Angle1,
		UserName: rec.Config.UserName,
		Hidden:   rec.Config.Hidden,
		Position: int(rec.Position),
	}
	if ch, ok := rec.Config.Channel.Get(); ok {
		doc.Channel = &ch
	}
	return doc
}

func (d mongoRecord) record() Record {
	cfg := switches.Config{
		ID:       d.ID,
		Channel:  switches.NoChannel,
		Angle0:   d.Angle0,
		Angle1:   d.Angle1,
		UserName: d.UserName,
		Hidden:   d.Hidden,
	}
	if d.Channel != nil {
		cfg.Channel = switches.ChannelOf(*d.Channel)
	}
	pos := switches.Position(d.Position)
	if !pos.Valid() {
		pos = switches.Unknown
	}
	return Record{Config: cfg, Position: pos}
}

// NewMongoStore connects to uri. The database comes from db, then from
// the URI path, then DefaultMongoDatabase.
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	opts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	if db == "" {
		db = databaseFromURI(uri)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(DefaultMongoCollection),
	}, nil
}

func (s *MongoStore) All(ctx context.Context) (map[string]Record, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	var docs []mongoRecord
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	out := make(map[string]Record, len(docs))
	for _, d := range docs {
		out[d.ID] = d.record()
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Record, bool, error) {
	var doc mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("mongo find %s: %w", id, err)
	}
	return doc.record(), true, nil
}

func (s *MongoStore) Put(ctx context.Context, rec Record) error {
	doc := toMongo(rec)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", doc.ID, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// databaseFromURI returns the database named in a mongodb URI, or
// DefaultMongoDatabase.
func databaseFromURI(uri string) string {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil || cs.Database == "" {
		return DefaultMongoDatabase
	}
	return cs.Database
}

var _ Store = (*MongoStore)(nil)
