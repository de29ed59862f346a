package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kochabx/phoneshop/store"
)

type document struct {
	ID        string    `bson:"_id"`
	Namespace string    `bson:"ns"`
	Key       string    `bson:"key"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Storage store.Storage 的 MongoDB 实现，每个键一个文档
type Storage struct {
	client     *Client
	collection *mongo.Collection
	namespace  string
}

var _ store.Storage = (*Storage)(nil)

// NewStorage 创建存储并确保 ns 索引存在
func NewStorage(ctx context.Context, client *Client) (*Storage, error) {
	coll := client.Database().Collection(client.config.Collection)
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "ns", Value: 1}}}); err != nil {
		return nil, err
	}
	return &Storage{client: client, collection: coll, namespace: client.config.Namespace}, nil
}

// Open 创建客户端与存储，Close 时一并关闭客户端
func Open(cfg Config, opts ...Option) (*Storage, error) {
	client, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), client.config.Timeout)
	defer cancel()

	s, err := NewStorage(ctx, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) id(key string) string {
	return s.namespace + ":" + key
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": s.id(key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	doc := document{ID: s.id(key), Namespace: s.namespace, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": s.id(key)})
	return err
}

func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	cur, err := s.collection.Find(ctx, bson.M{"ns": s.namespace},
		options.Find().SetProjection(bson.M{"key": 1}).SetSort(bson.M{"key": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	return keys, cur.Err()
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{"ns": s.namespace})
	return err
}

func (s *Storage) Close() error {
	return s.client.Close()
}
