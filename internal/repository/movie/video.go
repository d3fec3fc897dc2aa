package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"baytt/internal/model/movie"
)

// SceneVideoRepository 场景视频仓库接口
type SceneVideoRepository interface {
	Create(ctx context.Context, v *movie.SceneVideo) error
	FindByMovieID(ctx context.Context, movieID string) ([]*movie.SceneVideo, error)
	UpdateLipSync(ctx context.Context, id string, lipSyncURL string) error
}

// SceneVideoRepo 场景视频仓库实现
type SceneVideoRepo struct {
	coll *mongo.Collection
}

// NewSceneVideoRepo 创建场景视频仓库
func NewSceneVideoRepo(db *mongo.Database) *SceneVideoRepo {
	var v movie.SceneVideo
	return &SceneVideoRepo{coll: db.Collection(v.Collection())}
}

// Create 写入终态的视频记录
func (r *SceneVideoRepo) Create(ctx context.Context, v *movie.SceneVideo) error {
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, v)
	return err
}

// FindByMovieID 按场景号顺序查询
func (r *SceneVideoRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.SceneVideo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scene_number", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"movie_id": movieID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var videos []*movie.SceneVideo
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// UpdateLipSync 记录口型同步结果
func (r *SceneVideoRepo) UpdateLipSync(ctx context.Context, id string, lipSyncURL string) error {
	update := bson.M{"$set": bson.M{"lipsync_url": lipSyncURL, "updated_at": time.Now()}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}
