package movie

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DialogueAudio 单句台词的音频
type DialogueAudio struct {
	ID           string      `bson:"id" json:"id"`
	MovieID      string      `bson:"movie_id" json:"movie_id"`
	SceneNumber  int         `bson:"scene_number" json:"scene_number"`
	LineIndex    int         `bson:"line_index" json:"line_index"`
	Character    string      `bson:"character" json:"character"`
	VoiceID      string      `bson:"voice_id" json:"voice_id"`
	Text         string      `bson:"text" json:"text"`
	AudioURL     string      `bson:"audio_url,omitempty" json:"audio_url,omitempty"`
	Start        float64     `bson:"start" json:"start"`
	Duration     float64     `bson:"duration" json:"duration"`
	Stability    float64     `bson:"stability" json:"stability"`
	Similarity   float64     `bson:"similarity" json:"similarity"`
	Style        float64     `bson:"style" json:"style"`
	Status       AudioStatus `bson:"status" json:"status"`
	ErrorMessage string      `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt    time.Time   `bson:"created_at" json:"created_at"`
}

// Collection 返回集合名称
func (a *DialogueAudio) Collection() string {
	return "dialogue_audios"
}

// EnsureIndexes 创建和维护索引
func (a *DialogueAudio) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(a.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}, {Key: "scene_number", Value: 1}, {Key: "line_index", Value: 1}},
			Options: options.Index().SetName("idx_movie_scene_line"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
