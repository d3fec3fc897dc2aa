package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LocationImage 场景参考图缓存
// 以 (slug, time_of_day, weather) 为键，跨电影共享
type LocationImage struct {
	ID         string    `bson:"id" json:"id"`
	Slug       string    `bson:"slug" json:"slug"`
	Name       string    `bson:"name" json:"name"`
	TimeOfDay  string    `bson:"time_of_day" json:"time_of_day"`
	Weather    string    `bson:"weather" json:"weather"`
	ImageURL   string    `bson:"image_url" json:"image_url"`
	Prompt     string    `bson:"prompt,omitempty" json:"prompt,omitempty"`
	UsageCount int64     `bson:"usage_count" json:"usage_count"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// Collection 返回集合名称
func (l *LocationImage) Collection() string {
	return "location_images"
}

// EnsureIndexes 创建和维护索引
func (l *LocationImage) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(l.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "slug", Value: 1},
				{Key: "time_of_day", Value: 1},
				{Key: "weather", Value: 1},
			},
			Options: options.Index().SetName("uniq_slug_time_weather").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "time_of_day", Value: 1}, {Key: "usage_count", Value: -1}},
			Options: options.Index().SetName("idx_time_usage"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
