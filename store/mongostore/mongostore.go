// Package mongostore persists users and blog posts in MongoDB. Posts are
// stored in the blogs collection with their comments embedded as a sub-array.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/store"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Author    primitive.ObjectID `bson:"author"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type blogDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Author    primitive.ObjectID `bson:"author"`
	Comments  []commentDoc       `bson:"comments"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	blogs  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, verifies the connection and ensures indexes on database dbName.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}
	s := New(client, dbName)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New uses an already connected client.
func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client: client,
		users:  db.Collection("users"),
		blogs:  db.Collection("blogs"),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}
	_, err = s.blogs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create blogs.createdAt index: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes both collections. Used by tests against a scratch database.
func (s *Store) Drop(ctx context.Context) error {
	return s.users.Database().Drop(ctx)
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	user.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	u := doc.toModel()
	return &u, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	users := []models.User{}
	if len(oids) == 0 {
		return users, nil
	}
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	doc, err := fromPost(post)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := s.blogs.InsertOne(ctx, doc); err != nil {
		return err
	}
	post.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	var doc blogDoc
	if err := s.blogs.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	p := doc.toModel()
	return &p, nil
}

func (s *Store) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.blogs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []blogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toModel())
	}
	return posts, nil
}

// SavePost replaces the stored document. Title, content, comments and
// updatedAt are the only fields that change after creation.
func (s *Store) SavePost(ctx context.Context, post *models.Post) error {
	oid, err := primitive.ObjectIDFromHex(post.ID)
	if err != nil {
		return store.ErrNotFound
	}
	doc, err := fromPost(post)
	if err != nil {
		return err
	}
	res, err := s.blogs.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":     doc.Title,
		"content":   doc.Content,
		"comments":  doc.Comments,
		"updatedAt": doc.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.blogs.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) NewCommentID() string {
	return primitive.NewObjectID().Hex()
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func (d userDoc) toModel() models.User {
	return models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (d blogDoc) toModel() models.Post {
	p := models.Post{
		ID:        d.ID.Hex(),
		AuthorID:  d.Author.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Comments:  make([]models.Comment, 0, len(d.Comments)),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	for _, c := range d.Comments {
		p.Comments = append(p.Comments, models.Comment{
			ID:        c.ID.Hex(),
			AuthorID:  c.Author.Hex(),
			Content:   c.Content,
			CreatedAt: c.CreatedAt.UTC(),
		})
	}
	return p
}

func fromPost(p *models.Post) (blogDoc, error) {
	author, err := primitive.ObjectIDFromHex(p.AuthorID)
	if err != nil {
		return blogDoc{}, fmt.Errorf("post author id %q: %w", p.AuthorID, err)
	}
	doc := blogDoc{
		Title:     p.Title,
		Content:   p.Content,
		Author:    author,
		Comments:  make([]commentDoc, 0, len(p.Comments)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, c := range p.Comments {
		cid, err := primitive.ObjectIDFromHex(c.ID)
		if err != nil {
			return blogDoc{}, fmt.Errorf("comment id %q: %w", c.ID, err)
		}
		cauthor, err := primitive.ObjectIDFromHex(c.AuthorID)
		if err != nil {
			return blogDoc{}, fmt.Errorf("comment author id %q: %w", c.AuthorID, err)
		}
		doc.Comments = append(doc.Comments, commentDoc{
			ID:        cid,
			Author:    cauthor,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return doc, nil
}
