package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Movie 电影台账
// 作为进度与元数据的写入目标，各阶段按 last-writer-wins 更新
type Movie struct {
	ID              string          `bson:"id" json:"id"`
	Title           string          `bson:"title" json:"title"`
	Brief           string          `bson:"brief" json:"brief"`
	Genre           string          `bson:"genre" json:"genre"`
	DurationMinutes float64         `bson:"duration_minutes" json:"duration_minutes"`
	MusicURL        string          `bson:"music_url,omitempty" json:"music_url,omitempty"`
	Status          MovieStatus     `bson:"status" json:"status"`
	Stage           Stage           `bson:"stage" json:"stage"`
	Progress        int             `bson:"progress" json:"progress"` // 0-100，只增不减
	Bible           *VisualBible    `bson:"bible,omitempty" json:"bible,omitempty"`
	Plan            *ProductionPlan `bson:"plan,omitempty" json:"plan,omitempty"`
	SceneCount      int             `bson:"scene_count" json:"scene_count"`
	CompletedScenes int             `bson:"completed_scenes" json:"completed_scenes"`
	FinalVideoURL   string          `bson:"final_video_url,omitempty" json:"final_video_url,omitempty"`
	AssemblyStatus  AssemblyStatus  `bson:"assembly_status,omitempty" json:"assembly_status,omitempty"`
	Metadata        map[string]any  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	ErrorMessage    string          `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
	CompletedAt     *time.Time      `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Collection 返回集合名称
func (m *Movie) Collection() string {
	return "movies"
}

// EnsureIndexes 创建和维护索引
func (m *Movie) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(m.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_status_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// MovieUpdate 台账的一次进度写入
// 零值字段不写入；Progress 只在大于已有值时生效
type MovieUpdate struct {
	Status         MovieStatus
	Stage          Stage
	Progress       int
	Bible          *VisualBible
	Plan           *ProductionPlan
	SceneCount     *int
	Completed      *int
	FinalVideoURL  string
	AssemblyStatus AssemblyStatus
	Metadata       map[string]any // 按 key 合并
	ErrorMessage   string
	Done           bool // 写入 completed_at
}
