package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SceneVideo 场景视频产物
// 进入终态后不再修改（口型同步结果除外，它是附加产物）
type SceneVideo struct {
	ID              string          `bson:"id" json:"id"`
	MovieID         string          `bson:"movie_id" json:"movie_id"`
	SceneNumber     int             `bson:"scene_number" json:"scene_number"`
	Status          SceneStatus     `bson:"status" json:"status"`
	Prompt          string          `bson:"prompt" json:"prompt"`
	TaskID          string          `bson:"task_id,omitempty" json:"task_id,omitempty"`
	ReferenceSource ReferenceSource `bson:"reference_source,omitempty" json:"reference_source,omitempty"`
	ReferenceURL    string          `bson:"reference_url,omitempty" json:"reference_url,omitempty"`
	VideoURL        string          `bson:"video_url,omitempty" json:"video_url,omitempty"`
	EndFrameURL     string          `bson:"end_frame_url,omitempty" json:"end_frame_url,omitempty"`
	LipSyncURL      string          `bson:"lipsync_url,omitempty" json:"lipsync_url,omitempty"`
	Duration        float64         `bson:"duration" json:"duration"` // 秒
	ErrorMessage    string          `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

// Collection 返回集合名称
func (v *SceneVideo) Collection() string {
	return "scene_videos"
}

// EnsureIndexes 创建和维护索引
func (v *SceneVideo) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(v.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}, {Key: "scene_number", Value: 1}},
			Options: options.Index().SetName("idx_movie_scene"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// PlayableURL 成片使用的地址，口型同步结果优先
func (v *SceneVideo) PlayableURL() string {
	if v.LipSyncURL != "" {
		return v.LipSyncURL
	}
	return v.VideoURL
}
