package movie

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"baytt/internal/model/movie"
	"baytt/internal/pkg/id"
)

// LibraryRepository 共享资源库仓库接口
type LibraryRepository interface {
	FindByName(ctx context.Context, kind movie.ResourceKind, name string) (*movie.LibraryAsset, error)
	ListByKind(ctx context.Context, kind movie.ResourceKind) ([]*movie.LibraryAsset, error)
	IncrementUsage(ctx context.Context, id string) error
	Create(ctx context.Context, a *movie.LibraryAsset) error
}

// LibraryRepo 共享资源库仓库实现
type LibraryRepo struct {
	coll *mongo.Collection
}

// NewLibraryRepo 创建资源库仓库
func NewLibraryRepo(db *mongo.Database) *LibraryRepo {
	var a movie.LibraryAsset
	return &LibraryRepo{coll: db.Collection(a.Collection())}
}

// NameKey 资源名的匹配键
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// FindByName 名称精确匹配（忽略大小写和多余空白）
func (r *LibraryRepo) FindByName(ctx context.Context, kind movie.ResourceKind, name string) (*movie.LibraryAsset, error) {
	var a movie.LibraryAsset
	if err := r.coll.FindOne(ctx, bson.M{"kind": kind, "name_key": NameKey(name)}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByKind 按使用次数倒序列出
func (r *LibraryRepo) ListByKind(ctx context.Context, kind movie.ResourceKind) ([]*movie.LibraryAsset, error) {
	opts := options.Find().SetSort(bson.M{"usage_count": -1}).SetLimit(500)
	cursor, err := r.coll.Find(ctx, bson.M{"kind": kind}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assets []*movie.LibraryAsset
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// IncrementUsage 使用计数 +1
func (r *LibraryRepo) IncrementUsage(ctx context.Context, id string) error {
	update := bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}

// Create 新增条目
func (r *LibraryRepo) Create(ctx context.Context, a *movie.LibraryAsset) error {
	now := time.Now()
	if a.ID == "" {
		a.ID = id.New()
	}
	a.NameKey = NameKey(a.Name)
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, a)
	return err
}
