package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrPostNotFound is returned when no post matches
var ErrPostNotFound = errors.New("post not found")

// DocumentRunner runs fn with a session on the active document store
type DocumentRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, conn *DocumentConn) error) error
}

// Post is a post document
type Post struct {
	PostID       string     `bson:"post_id" json:"post_id"`
	UserID       string     `bson:"user_id" json:"user_id"`
	Text         string     `bson:"text,omitempty" json:"text,omitempty"`
	ImageURL     string     `bson:"image_url,omitempty" json:"image_url,omitempty"`
	ThumbnailURL string     `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// PostStore persists posts through the document failover manager
type PostStore struct {
	db         DocumentRunner
	collection string
}

func NewPostStore(db DocumentRunner, collection string) *PostStore {
	return &PostStore{db: db, collection: collection}
}

// EnsureIndexes creates the user and recency indexes on the collection
func (s *PostStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	return s.db.Do(ctx, func(ctx context.Context, conn *DocumentConn) error {
		if _, err := conn.Database.Collection(s.collection).Indexes().CreateMany(conn.Context(ctx), models); err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
		return nil
	})
}

// InsertPost stores post, assigning a PostID and CreatedAt when unset
func (s *PostStore) InsertPost(ctx context.Context, post *Post) error {
	if post.PostID == "" {
		post.PostID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	return s.db.Do(ctx, func(ctx context.Context, conn *DocumentConn) error {
		if _, err := conn.Database.Collection(s.collection).InsertOne(conn.Context(ctx), post); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	})
}

// GetPost retrieves a post by ID
func (s *PostStore) GetPost(ctx context.Context, postID string) (*Post, error) {
	var post Post
	err := s.db.Do(ctx, func(ctx context.Context, conn *DocumentConn) error {
		err := conn.Database.Collection(s.collection).
			FindOne(conn.Context(ctx), bson.D{{Key: "post_id", Value: postID}}).
			Decode(&post)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrPostNotFound
		}
		if err != nil {
			return fmt.Errorf("find post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListUserPosts returns the newest posts of a user, at most limit
func (s *PostStore) ListUserPosts(ctx context.Context, userID string, limit int64) ([]Post, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	var posts []Post
	err := s.db.Do(ctx, func(ctx context.Context, conn *DocumentConn) error {
		sctx := conn.Context(ctx)
		cursor, err := conn.Database.Collection(s.collection).Find(sctx, bson.D{{Key: "user_id", Value: userID}}, opts)
		if err != nil {
			return fmt.Errorf("find user posts: %w", err)
		}
		if err := cursor.All(sctx, &posts); err != nil {
			return fmt.Errorf("decode user posts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
