package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"baytt/internal/model/movie"
)

// DialogueAudioRepository 台词音频仓库接口
type DialogueAudioRepository interface {
	Create(ctx context.Context, a *movie.DialogueAudio) error
	FindByMovieID(ctx context.Context, movieID string) ([]*movie.DialogueAudio, error)
}

// DialogueAudioRepo 台词音频仓库实现
type DialogueAudioRepo struct {
	coll *mongo.Collection
}

// NewDialogueAudioRepo 创建台词音频仓库
func NewDialogueAudioRepo(db *mongo.Database) *DialogueAudioRepo {
	var a movie.DialogueAudio
	return &DialogueAudioRepo{coll: db.Collection(a.Collection())}
}

// Create 写入音频记录
func (r *DialogueAudioRepo) Create(ctx context.Context, a *movie.DialogueAudio) error {
	a.CreatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, a)
	return err
}

// FindByMovieID 按场景和台词顺序查询
func (r *DialogueAudioRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.DialogueAudio, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scene_number", Value: 1}, {Key: "line_index", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"movie_id": movieID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var audios []*movie.DialogueAudio
	if err := cursor.All(ctx, &audios); err != nil {
		return nil, err
	}
	return audios, nil
}
