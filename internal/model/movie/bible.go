package movie

import "strings"

// VisualBible 电影的视觉与连续性约定
// 由 Planner 创建一次，之后所有阶段只读
type VisualBible struct {
	Title           string             `bson:"title" json:"title"`
	Genre           string             `bson:"genre" json:"genre"`
	Tone            string             `bson:"tone" json:"tone"`
	Era             string             `bson:"era" json:"era"`
	Palette         ColorPalette       `bson:"palette" json:"palette"`
	LightingRules   map[string]string  `bson:"lighting_rules" json:"lighting_rules"` // time_of_day -> 规则
	Camera          CameraStyle        `bson:"camera" json:"camera"`
	Characters      []CharacterProfile `bson:"characters" json:"characters"`
	Locations       []LocationProfile  `bson:"locations" json:"locations"`
	ContinuityRules []string           `bson:"continuity_rules" json:"continuity_rules"`
	Forbidden       []string           `bson:"forbidden" json:"forbidden"`
	Fallback        bool               `bson:"fallback" json:"fallback"` // 模型输出无法解析时使用的保守默认值
}

// ColorPalette 色彩方案
type ColorPalette struct {
	Primary []string `bson:"primary" json:"primary"`
	Accent  []string `bson:"accent" json:"accent"`
	Notes   string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// CameraStyle 镜头风格
type CameraStyle struct {
	Lens     string `bson:"lens,omitempty" json:"lens,omitempty"`
	Movement string `bson:"movement,omitempty" json:"movement,omitempty"`
	Framing  string `bson:"framing,omitempty" json:"framing,omitempty"`
}

// CharacterProfile 角色设定
type CharacterProfile struct {
	Name       string       `bson:"name" json:"name"`
	Appearance string       `bson:"appearance" json:"appearance"`
	Wardrobe   string       `bson:"wardrobe" json:"wardrobe"`
	Voice      VoiceProfile `bson:"voice" json:"voice"`
}

// VoiceProfile 配音设定
type VoiceProfile struct {
	Gender  string `bson:"gender,omitempty" json:"gender,omitempty"` // male, female, neutral
	Age     string `bson:"age,omitempty" json:"age,omitempty"`
	Tone    string `bson:"tone,omitempty" json:"tone,omitempty"`
	VoiceID string `bson:"voice_id,omitempty" json:"voice_id,omitempty"` // 显式指定的音色
}

// LocationProfile 场景地点设定
type LocationProfile struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
}

// DefaultBible 保守的默认视觉约定
// 中性色板、通用光线规则，没有角色和地点
func DefaultBible(title, genre string) *VisualBible {
	return &VisualBible{
		Title: title,
		Genre: genre,
		Tone:  "grounded",
		Era:   "contemporary",
		Palette: ColorPalette{
			Primary: []string{"neutral gray", "warm beige"},
			Accent:  []string{"muted blue"},
		},
		LightingRules: defaultLighting(),
		Camera: CameraStyle{
			Lens:     "35mm",
			Movement: "steady, slow push-ins",
			Framing:  "medium shots with occasional close-ups",
		},
		Characters:      []CharacterProfile{},
		Locations:       []LocationProfile{},
		ContinuityRules: []string{"keep wardrobe identical across scenes", "keep lighting consistent within a time of day"},
		Forbidden:       []string{"text overlays", "watermarks"},
		Fallback:        true,
	}
}

func defaultLighting() map[string]string {
	return map[string]string{
		"day":   "soft natural daylight",
		"dawn":  "low warm light with long shadows",
		"dusk":  "golden low-angle light fading to blue",
		"night": "practical lights with deep shadows",
	}
}

// Normalize 补齐缺省字段，保证下游不必判空
func (b *VisualBible) Normalize(title, genre string) {
	if b.Title == "" {
		b.Title = title
	}
	if b.Genre == "" {
		b.Genre = genre
	}
	if b.LightingRules == nil {
		b.LightingRules = map[string]string{}
	}
	normalized := make(map[string]string, len(b.LightingRules))
	for k, v := range b.LightingRules {
		normalized[NormalizeTimeOfDay(k)] = v
	}
	for k, v := range defaultLighting() {
		if _, ok := normalized[k]; !ok {
			normalized[k] = v
		}
	}
	b.LightingRules = normalized
	if b.Characters == nil {
		b.Characters = []CharacterProfile{}
	}
	if b.Locations == nil {
		b.Locations = []LocationProfile{}
	}
}

// Character 按名字查找角色（不区分大小写）
func (b *VisualBible) Character(name string) (*CharacterProfile, bool) {
	for i := range b.Characters {
		if strings.EqualFold(b.Characters[i].Name, name) {
			return &b.Characters[i], true
		}
	}
	return nil, false
}

// Location 按名字查找地点（不区分大小写）
func (b *VisualBible) Location(name string) (*LocationProfile, bool) {
	for i := range b.Locations {
		if strings.EqualFold(b.Locations[i].Name, name) {
			return &b.Locations[i], true
		}
	}
	return nil, false
}

// Lighting 指定时间段的光线规则
func (b *VisualBible) Lighting(timeOfDay string) string {
	return b.LightingRules[NormalizeTimeOfDay(timeOfDay)]
}

// StyleLine 一行风格描述，供图片和视频提示词使用
func (b *VisualBible) StyleLine() string {
	var parts []string
	if b.Genre != "" {
		parts = append(parts, b.Genre+" film")
	}
	if b.Tone != "" {
		parts = append(parts, b.Tone+" tone")
	}
	if b.Era != "" {
		parts = append(parts, b.Era)
	}
	if len(b.Palette.Primary) > 0 {
		parts = append(parts, "palette of "+strings.Join(b.Palette.Primary, ", "))
	}
	if b.Camera.Lens != "" {
		parts = append(parts, b.Camera.Lens+" lens")
	}
	return strings.Join(parts, ", ")
}
