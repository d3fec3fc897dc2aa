package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"baytt/internal/model/movie"
	"baytt/internal/pkg/id"
)

// LocationImageRepository 场景参考图缓存仓库接口
type LocationImageRepository interface {
	FindExact(ctx context.Context, slug, timeOfDay, weather string) (*movie.LocationImage, error)
	FindByTimeOfDay(ctx context.Context, timeOfDay string) ([]*movie.LocationImage, error)
	IncrementUsage(ctx context.Context, id string) error
	Upsert(ctx context.Context, img *movie.LocationImage) (*movie.LocationImage, error)
}

// LocationImageRepo 场景参考图缓存仓库实现
type LocationImageRepo struct {
	coll *mongo.Collection
}

// NewLocationImageRepo 创建场景参考图缓存仓库
func NewLocationImageRepo(db *mongo.Database) *LocationImageRepo {
	var l movie.LocationImage
	return &LocationImageRepo{coll: db.Collection(l.Collection())}
}

// FindExact 按 (slug, time_of_day, weather) 精确查询，未命中返回 mongo.ErrNoDocuments
func (r *LocationImageRepo) FindExact(ctx context.Context, slug, timeOfDay, weather string) (*movie.LocationImage, error) {
	var img movie.LocationImage
	filter := bson.M{"slug": slug, "time_of_day": timeOfDay, "weather": weather}
	if err := r.coll.FindOne(ctx, filter).Decode(&img); err != nil {
		return nil, err
	}
	return &img, nil
}

// FindByTimeOfDay 同一时间段的所有条目，用于模糊匹配
func (r *LocationImageRepo) FindByTimeOfDay(ctx context.Context, timeOfDay string) ([]*movie.LocationImage, error) {
	opts := options.Find().SetSort(bson.M{"usage_count": -1}).SetLimit(200)
	cursor, err := r.coll.Find(ctx, bson.M{"time_of_day": timeOfDay}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var images []*movie.LocationImage
	if err := cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// IncrementUsage 命中计数 +1
func (r *LocationImageRepo) IncrementUsage(ctx context.Context, id string) error {
	update := bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	return err
}

// Upsert 幂等写入
// 已存在相同键时保留原有条目（并发生成时先写者胜），返回库中实际的记录；
// 原有条目只是占位图时改写为新图，保留 id 和命中计数
func (r *LocationImageRepo) Upsert(ctx context.Context, img *movie.LocationImage) (*movie.LocationImage, error) {
	now := time.Now()
	if img.ID == "" {
		img.ID = id.New()
	}
	filter := bson.M{"slug": img.Slug, "time_of_day": img.TimeOfDay, "weather": img.Weather}

	if img.ImageURL != "" {
		replace := bson.M{"$set": bson.M{
			"name":       img.Name,
			"image_url":  img.ImageURL,
			"prompt":     img.Prompt,
			"updated_at": now,
		}}
		if _, err := r.coll.UpdateOne(ctx, placeholderEntryFilter(img.Slug, img.TimeOfDay, img.Weather), replace); err != nil {
			return nil, err
		}
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"id":          img.ID,
			"name":        img.Name,
			"image_url":   img.ImageURL,
			"prompt":      img.Prompt,
			"usage_count": int64(0),
			"created_at":  now,
			"updated_at":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored movie.LocationImage
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// 两个写入同时 upsert，唯一索引拒绝了后者，重新读取即可
		return r.FindExact(ctx, img.Slug, img.TimeOfDay, img.Weather)
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// placeholderEntryFilter 指定键下 image_url 无效的条目：
// 缺失或为空、地址含 placeholder、没有数据的 data URL
func placeholderEntryFilter(slug, timeOfDay, weather string) bson.M {
	return bson.M{
		"slug":        slug,
		"time_of_day": timeOfDay,
		"weather":     weather,
		"$or": bson.A{
			bson.M{"image_url": bson.M{"$exists": false}},
			bson.M{"image_url": ""},
			bson.M{"image_url": primitive.Regex{Pattern: "placeholder", Options: "i"}},
			bson.M{"image_url": primitive.Regex{Pattern: `^data:[^,]*(,\s*)?$`}},
		},
	}
}
