package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LibraryAsset 共享资源库条目（地点或角色）
type LibraryAsset struct {
	ID          string       `bson:"id" json:"id"`
	Kind        ResourceKind `bson:"kind" json:"kind"`
	Name        string       `bson:"name" json:"name"`
	NameKey     string       `bson:"name_key" json:"-"` // 小写名，用于精确匹配
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string       `bson:"image_url,omitempty" json:"image_url,omitempty"`
	UsageCount  int64        `bson:"usage_count" json:"usage_count"`
	CreatedAt   time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at" json:"updated_at"`
}

// Collection 返回集合名称
func (a *LibraryAsset) Collection() string {
	return "library_assets"
}

// EnsureIndexes 创建和维护索引
func (a *LibraryAsset) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(a.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "name_key", Value: 1}},
			Options: options.Index().SetName("uniq_kind_name").SetUnique(true),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
