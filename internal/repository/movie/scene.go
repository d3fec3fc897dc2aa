package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"baytt/internal/model/movie"
)

// SceneRepository 剧本场景仓库接口
type SceneRepository interface {
	CreateMany(ctx context.Context, scenes []*movie.Scene) error
	FindByMovieID(ctx context.Context, movieID string) ([]*movie.Scene, error)
	UpdateStatus(ctx context.Context, movieID string, number int, status movie.SceneStatus, errorMsg string) error
}

// SceneRepo 剧本场景仓库实现
type SceneRepo struct {
	coll *mongo.Collection
}

// NewSceneRepo 创建场景仓库
func NewSceneRepo(db *mongo.Database) *SceneRepo {
	var s movie.Scene
	return &SceneRepo{coll: db.Collection(s.Collection())}
}

// CreateMany 批量写入剧本
func (r *SceneRepo) CreateMany(ctx context.Context, scenes []*movie.Scene) error {
	if len(scenes) == 0 {
		return nil
	}
	now := time.Now()
	docs := make([]any, 0, len(scenes))
	for _, s := range scenes {
		s.CreatedAt = now
		s.UpdatedAt = now
		if s.Status == "" {
			s.Status = movie.SceneStatusPending
		}
		docs = append(docs, s)
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return err
}

// FindByMovieID 按场景号顺序返回剧本
func (r *SceneRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.Scene, error) {
	opts := options.Find().SetSort(bson.M{"number": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"movie_id": movieID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var scenes []*movie.Scene
	if err := cursor.All(ctx, &scenes); err != nil {
		return nil, err
	}
	return scenes, nil
}

// UpdateStatus 更新场景状态
func (r *SceneRepo) UpdateStatus(ctx context.Context, movieID string, number int, status movie.SceneStatus, errorMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"error":      errorMsg,
			"updated_at": time.Now(),
		},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"movie_id": movieID, "number": number}, update)
	return err
}
