package movie

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Scene 剧本中的一个场景
// 内容由 Screenwriter 一次写入，之后只更新 Status/Error
type Scene struct {
	ID         string           `bson:"id" json:"id"`
	MovieID    string           `bson:"movie_id" json:"movie_id"`
	Number     int              `bson:"number" json:"number"` // 从 1 开始
	Header     SceneHeader      `bson:"header" json:"header"`
	Visual     VisualDirection  `bson:"visual" json:"visual"`
	Characters []SceneCharacter `bson:"characters" json:"characters"`
	Action     []string         `bson:"action" json:"action"` // 逐拍动作
	Dialogue   []DialogueLine   `bson:"dialogue" json:"dialogue"`
	Sound      SoundDesign      `bson:"sound" json:"sound"`
	Continuity ContinuityBlock  `bson:"continuity" json:"continuity"`
	Transition TransitionSpec   `bson:"transition" json:"transition"` // 到下一场景的转场
	Duration   int              `bson:"duration" json:"duration"`     // 目标时长（秒）
	Status     SceneStatus      `bson:"status" json:"status"`
	Error      string           `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt  time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `bson:"updated_at" json:"updated_at"`
}

// SceneHeader 场景头
type SceneHeader struct {
	Location     string `bson:"location" json:"location"`
	LocationSlug string `bson:"location_slug" json:"location_slug"`
	TimeOfDay    string `bson:"time_of_day" json:"time_of_day"`
	Weather      string `bson:"weather" json:"weather"`
	Interior     bool   `bson:"interior" json:"interior"`
}

// VisualDirection 视觉调度
type VisualDirection struct {
	Lighting string   `bson:"lighting" json:"lighting"`
	Camera   string   `bson:"camera" json:"camera"`
	Shots    []string `bson:"shots" json:"shots"`
	Mood     string   `bson:"mood,omitempty" json:"mood,omitempty"`
}

// SceneCharacter 出场角色
type SceneCharacter struct {
	Name     string `bson:"name" json:"name"`
	Wardrobe string `bson:"wardrobe" json:"wardrobe"`
	Position string `bson:"position,omitempty" json:"position,omitempty"`
	Blocking string `bson:"blocking,omitempty" json:"blocking,omitempty"`
}

// DialogueLine 台词
type DialogueLine struct {
	Character string  `bson:"character" json:"character"`
	Text      string  `bson:"text" json:"text"`
	Emotion   string  `bson:"emotion,omitempty" json:"emotion,omitempty"`
	Pace      string  `bson:"pace,omitempty" json:"pace,omitempty"` // slow, normal, fast
	Tone      string  `bson:"tone,omitempty" json:"tone,omitempty"`
	Start     float64 `bson:"start" json:"start"`       // 相对场景起点（秒）
	Duration  float64 `bson:"duration" json:"duration"` // 预估时长（秒）
}

// SoundDesign 声音设计
type SoundDesign struct {
	Ambience string   `bson:"ambience,omitempty" json:"ambience,omitempty"`
	Effects  []string `bson:"effects,omitempty" json:"effects,omitempty"`
	Music    string   `bson:"music,omitempty" json:"music,omitempty"`
}

// ContinuityBlock 与前后场景的衔接
type ContinuityBlock struct {
	IsContinuation      bool               `bson:"is_continuation" json:"is_continuation"`
	ContinuesFrom       int                `bson:"continues_from,omitempty" json:"continues_from,omitempty"`
	LeadsTo             int                `bson:"leads_to,omitempty" json:"leads_to,omitempty"`
	PersistentElements  []string           `bson:"persistent_elements,omitempty" json:"persistent_elements,omitempty"`
	ChangesFromPrevious []ContinuityChange `bson:"changes_from_previous,omitempty" json:"changes_from_previous,omitempty"`
}

// ContinuityChange 有理由的变化
type ContinuityChange struct {
	Character string `bson:"character,omitempty" json:"character,omitempty"`
	Element   string `bson:"element,omitempty" json:"element,omitempty"` // wardrobe, prop, ...
	Reason    string `bson:"reason,omitempty" json:"reason,omitempty"`
}

// TransitionSpec 转场
type TransitionSpec struct {
	Type     TransitionType `bson:"type" json:"type"`
	Duration float64        `bson:"duration" json:"duration"`
}

// Collection 返回集合名称
func (s *Scene) Collection() string {
	return "movie_scenes"
}

// EnsureIndexes 创建和维护索引
func (s *Scene) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(s.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().SetName("idx_movie_number").SetUnique(true),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// Wardrobe 场景中某角色的服装
func (s *Scene) Wardrobe(character string) (string, bool) {
	for _, c := range s.Characters {
		if strings.EqualFold(c.Name, character) {
			return c.Wardrobe, true
		}
	}
	return "", false
}

// ExplainsChange 是否有针对该角色的变化说明
func (s *Scene) ExplainsChange(character string) bool {
	for _, ch := range s.Continuity.ChangesFromPrevious {
		if strings.EqualFold(strings.TrimSpace(ch.Character), character) {
			if ch.Element == "" || strings.EqualFold(ch.Element, "wardrobe") {
				return true
			}
		}
	}
	return false
}

// DialogueTexts 所有台词文本
func (s *Scene) DialogueTexts() []string {
	texts := make([]string, 0, len(s.Dialogue))
	for _, d := range s.Dialogue {
		if t := strings.TrimSpace(d.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}

// Screenplay 按场景号排序的完整剧本
type Screenplay struct {
	MovieID string   `json:"movie_id"`
	Title   string   `json:"title"`
	Scenes  []*Scene `json:"scenes"`
}

// Scene 按场景号查找
func (p *Screenplay) Scene(number int) (*Scene, bool) {
	for _, s := range p.Scenes {
		if s.Number == number {
			return s, true
		}
	}
	return nil, false
}
