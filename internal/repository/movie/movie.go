package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"baytt/internal/model/movie"
)

// MovieRepository 电影台账仓库接口
type MovieRepository interface {
	Create(ctx context.Context, m *movie.Movie) error
	FindByID(ctx context.Context, id string) (*movie.Movie, error)
	Update(ctx context.Context, id string, u *movie.MovieUpdate) error
}

// MovieRepo 电影台账仓库实现
type MovieRepo struct {
	coll *mongo.Collection
}

// NewMovieRepo 创建电影台账仓库
func NewMovieRepo(db *mongo.Database) *MovieRepo {
	var m movie.Movie
	return &MovieRepo{coll: db.Collection(m.Collection())}
}

// Create 创建电影记录
func (r *MovieRepo) Create(ctx context.Context, m *movie.Movie) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = movie.MovieStatusPending
	}
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

// FindByID 根据ID查询
func (r *MovieRepo) FindByID(ctx context.Context, id string) (*movie.Movie, error) {
	var m movie.Movie
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update 写入一次进度
// progress 用 $max，保证并发写入时也不会回退
func (r *MovieRepo) Update(ctx context.Context, id string, u *movie.MovieUpdate) error {
	now := time.Now()
	set := bson.M{"updated_at": now}
	if u.Status != "" {
		set["status"] = u.Status
	}
	if u.Stage != "" {
		set["stage"] = u.Stage
	}
	if u.Bible != nil {
		set["bible"] = u.Bible
	}
	if u.Plan != nil {
		set["plan"] = u.Plan
	}
	if u.SceneCount != nil {
		set["scene_count"] = *u.SceneCount
	}
	if u.Completed != nil {
		set["completed_scenes"] = *u.Completed
	}
	if u.FinalVideoURL != "" {
		set["final_video_url"] = u.FinalVideoURL
	}
	if u.AssemblyStatus != "" {
		set["assembly_status"] = u.AssemblyStatus
	}
	if u.ErrorMessage != "" {
		set["error_message"] = u.ErrorMessage
	}
	for k, v := range u.Metadata {
		set["metadata."+k] = v
	}
	if u.Done {
		set["completed_at"] = now
	}

	update := bson.M{"$set": set}
	if u.Progress > 0 {
		update["$max"] = bson.M{"progress": u.Progress}
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}
