package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"baytt/internal/model/movie"
)

// EnsureIndexes 创建所有模型的索引
// 应用启动时调用一次
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	models := []Model{
		&movie.Movie{},
		&movie.Scene{},
		&movie.SceneVideo{},
		&movie.DialogueAudio{},
		&movie.LocationImage{},
		&movie.LibraryAsset{},
	}
	return EnsureAllIndexes(ctx, db, models...)
}
