package movie

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/id"
	"baytt/internal/pkg/jsonrepair"
	"baytt/internal/pkg/movietools"
)

// scenesPerBatch 单次请求最多生成的场景数，避免输出被 max_tokens 截断
const scenesPerBatch = 12

// Screenwriter 把视觉约定扩写为逐场景剧本
type Screenwriter struct {
	text            movietools.TextProvider
	scenesPerMinute int
	sceneDuration   int
	maxTokens       int
}

// NewScreenwriter 创建 Screenwriter
func NewScreenwriter(text movietools.TextProvider, scenesPerMinute, sceneDuration, maxTokens int) *Screenwriter {
	if scenesPerMinute <= 0 {
		scenesPerMinute = 6
	}
	if sceneDuration <= 0 {
		sceneDuration = 5
	}
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &Screenwriter{
		text:            text,
		scenesPerMinute: scenesPerMinute,
		sceneDuration:   sceneDuration,
		maxTokens:       maxTokens,
	}
}

// TargetSceneCount 目标场景数：时长（分钟）× 每分钟场景数，至少 1
func (w *Screenwriter) TargetSceneCount(durationMinutes float64) int {
	n := int(math.Round(durationMinutes * float64(w.scenesPerMinute)))
	if n < 1 {
		n = 1
	}
	return n
}

type screenplayResponse struct {
	Scenes []*movie.Scene `json:"scenes"`
}

// WriteScreenplay 生成剧本
// 分批请求，每批带上前一场的结尾信息；某一批解析失败时用资源计划的骨架补齐，
// 一个场景都得不到才返回 ParseError
func (w *Screenwriter) WriteScreenplay(
	ctx context.Context,
	movieID, brief string,
	bible *movie.VisualBible,
	plan *movie.ProductionPlan,
	durationMinutes float64,
) (*movie.Screenplay, error) {
	target := w.TargetSceneCount(durationMinutes)
	bibleJSON, err := json.Marshal(bible)
	if err != nil {
		return nil, fmt.Errorf("marshal visual bible: %w", err)
	}

	var scenes []*movie.Scene
	for start := 1; start <= target; start += scenesPerBatch {
		end := min(start+scenesPerBatch-1, target)
		batch, err := w.writeBatch(ctx, brief, string(bibleJSON), plan, start, end, target, last(scenes))
		if err != nil {
			if !apperrors.IsParseError(err) {
				return nil, err
			}
			log.Warn().Err(err).Int("from", start).Int("to", end).Msg("剧本批次解析失败，使用骨架补齐")
			batch = skeletonScenes(plan, bible, start, end)
		}
		scenes = append(scenes, batch...)
	}
	if len(scenes) == 0 {
		return nil, apperrors.NewParseError("screenplay has no scenes", nil)
	}
	if len(scenes) > target {
		scenes = scenes[:target]
	}

	sp := &movie.Screenplay{MovieID: movieID, Title: bible.Title, Scenes: scenes}
	w.normalize(sp, bible, plan)

	warnings := AuditContinuity(sp)
	for _, wn := range warnings {
		log.Warn().
			Str("movie_id", movieID).
			Int("scene_number", wn.SceneNumber).
			Str("character", wn.Character).
			Str("previous", wn.Previous).
			Str("current", wn.Current).
			Msg("服装与上次出场不一致且没有说明")
	}

	log.Info().
		Str("movie_id", movieID).
		Int("target", target).
		Int("scenes", len(sp.Scenes)).
		Int("continuity_warnings", len(warnings)).
		Msg("剧本已生成")
	return sp, nil
}

func (w *Screenwriter) writeBatch(
	ctx context.Context,
	brief, bibleJSON string,
	plan *movie.ProductionPlan,
	from, to, total int,
	previous *movie.Scene,
) ([]*movie.Scene, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Brief:\n%s\n\nVisual Bible:\n%s\n\n", brief, bibleJSON)
	fmt.Fprintf(&b, "The movie has %d scenes of %d seconds each. Write scenes %d to %d.\n", total, w.sceneDuration, from, to)
	if plan != nil && len(plan.Skeleton) > 0 {
		b.WriteString("Scene skeleton:\n")
		for _, sk := range plan.Skeleton {
			if sk.Number < from || sk.Number > to {
				continue
			}
			fmt.Fprintf(&b, "%d. %s (%s): %s\n", sk.Number, sk.Location, sk.TimeOfDay, sk.Summary)
		}
	}
	if previous != nil {
		fmt.Fprintf(&b, "\nThe previous scene (%d) ends at %s, %s.", previous.Number, previous.Header.Location, previous.Header.TimeOfDay)
		if len(previous.Action) > 0 {
			fmt.Fprintf(&b, " Last beat: %s", previous.Action[len(previous.Action)-1])
		}
		b.WriteString("\n")
	}

	content, err := w.text.Generate(ctx, &movietools.TextRequest{
		SystemPrompt: screenplaySystemPrompt,
		UserPrompt:   b.String(),
		MaxTokens:    w.maxTokens,
		Temperature:  0.8,
	})
	if err != nil {
		return nil, apperrors.NewProviderError(fmt.Sprintf("generate scenes %d-%d", from, to), err)
	}

	var resp screenplayResponse
	if err := jsonrepair.Unmarshal(content, &resp); err != nil {
		return nil, apperrors.NewParseError(fmt.Sprintf("parse scenes %d-%d", from, to), err)
	}
	var scenes []*movie.Scene
	for _, s := range resp.Scenes {
		if s != nil {
			scenes = append(scenes, s)
		}
	}
	if len(scenes) == 0 {
		return nil, apperrors.NewParseError(fmt.Sprintf("scenes %d-%d are empty", from, to), nil)
	}
	if len(scenes) > to-from+1 {
		scenes = scenes[:to-from+1]
	}
	return scenes, nil
}

// normalize 场景号连续、地点键与时间天气归一、转场时长、服装补齐、台词时间落在场景内
func (w *Screenwriter) normalize(sp *movie.Screenplay, bible *movie.VisualBible, plan *movie.ProductionPlan) {
	now := time.Now()
	for i, s := range sp.Scenes {
		s.Number = i + 1
		s.ID = id.New()
		s.MovieID = sp.MovieID
		s.Duration = w.sceneDuration
		s.Status = movie.SceneStatusPending
		s.Error = ""
		s.CreatedAt = now
		s.UpdatedAt = now

		s.Header.Location = strings.TrimSpace(s.Header.Location)
		if s.Header.Location == "" {
			s.Header.Location = fallbackLocation(sp, plan, bible, i)
		}
		s.Header.LocationSlug = movietools.Slugify(s.Header.Location)
		s.Header.TimeOfDay = movie.NormalizeTimeOfDay(s.Header.TimeOfDay)
		s.Header.Weather = movie.NormalizeWeather(s.Header.Weather)

		s.Transition.Type = movie.ParseTransitionType(string(s.Transition.Type))
		s.Transition.Duration = s.Transition.Type.BlendDuration()

		for j := range s.Characters {
			c := &s.Characters[j]
			c.Name = strings.TrimSpace(c.Name)
			if c.Wardrobe == "" {
				if profile, ok := bible.Character(c.Name); ok {
					c.Wardrobe = profile.Wardrobe
				}
			}
		}
		normalizeDialogue(s)

		s.Continuity.ContinuesFrom = 0
		s.Continuity.LeadsTo = 0
		if i == 0 {
			s.Continuity.IsContinuation = false
		}
		if s.Continuity.IsContinuation {
			s.Continuity.ContinuesFrom = s.Number - 1
			sp.Scenes[i-1].Continuity.LeadsTo = s.Number
		}
	}
	// 最后一场没有下一场，转场无意义
	if n := len(sp.Scenes); n > 0 {
		sp.Scenes[n-1].Transition = movie.TransitionSpec{Type: movie.TransitionCut}
	}
}

// normalizeDialogue 缺失的时间按顺序排布，所有台词起点落在场景时长内
func normalizeDialogue(s *movie.Scene) {
	var cursor float64
	dur := float64(s.Duration)
	kept := s.Dialogue[:0]
	for _, d := range s.Dialogue {
		d.Text = strings.TrimSpace(d.Text)
		if d.Text == "" {
			continue
		}
		if d.Duration <= 0 {
			d.Duration = estimateSpeechSeconds(d.Text)
		}
		if d.Start <= 0 || d.Start < cursor {
			d.Start = cursor
		}
		if d.Start >= dur {
			d.Start = math.Max(0, dur-d.Duration)
		}
		cursor = d.Start + d.Duration
		kept = append(kept, d)
	}
	s.Dialogue = kept
}

// estimateSpeechSeconds 粗略估计朗读时长：英文约 2.5 词/秒，中文约 4 字/秒
func estimateSpeechSeconds(text string) float64 {
	words := len(strings.Fields(text))
	runes := len([]rune(text))
	if words > 1 {
		return math.Max(0.8, float64(words)/2.5)
	}
	return math.Max(0.8, float64(runes)/4)
}

func fallbackLocation(sp *movie.Screenplay, plan *movie.ProductionPlan, bible *movie.VisualBible, i int) string {
	if plan != nil {
		for _, sk := range plan.Skeleton {
			if sk.Number == i+1 && sk.Location != "" {
				return sk.Location
			}
		}
	}
	if i > 0 {
		return sp.Scenes[i-1].Header.Location
	}
	if len(bible.Locations) > 0 {
		return bible.Locations[0].Name
	}
	return "establishing location"
}

// skeletonScenes 用资源计划骨架生成最简场景
func skeletonScenes(plan *movie.ProductionPlan, bible *movie.VisualBible, from, to int) []*movie.Scene {
	var scenes []*movie.Scene
	for n := from; n <= to; n++ {
		s := &movie.Scene{Transition: movie.TransitionSpec{Type: movie.TransitionCut}}
		if plan != nil {
			for _, sk := range plan.Skeleton {
				if sk.Number != n {
					continue
				}
				s.Header.Location = sk.Location
				s.Header.TimeOfDay = sk.TimeOfDay
				s.Continuity.IsContinuation = sk.ContinuesPrevious
				if sk.Summary != "" {
					s.Action = []string{sk.Summary}
				}
			}
		}
		if s.Header.Location == "" && len(bible.Locations) > 0 {
			s.Header.Location = bible.Locations[(n-1)%len(bible.Locations)].Name
		}
		scenes = append(scenes, s)
	}
	return scenes
}

// ContinuityWarning 服装连续性审查结果
type ContinuityWarning struct {
	SceneNumber int
	Character   string
	Previous    string
	Current     string
}

// AuditContinuity 检查每个角色的服装是否与上次出场一致
// 不一致且场景没有对应的 changes_from_previous 说明时记一条警告，不报错
func AuditContinuity(sp *movie.Screenplay) []ContinuityWarning {
	lastWardrobe := make(map[string]string)
	var warnings []ContinuityWarning
	for _, s := range sp.Scenes {
		for _, c := range s.Characters {
			key := strings.ToLower(c.Name)
			current := strings.TrimSpace(c.Wardrobe)
			if key == "" || current == "" {
				continue
			}
			prev, seen := lastWardrobe[key]
			if seen && !strings.EqualFold(prev, current) && !s.ExplainsChange(c.Name) {
				warnings = append(warnings, ContinuityWarning{
					SceneNumber: s.Number,
					Character:   c.Name,
					Previous:    prev,
					Current:     current,
				})
			}
			lastWardrobe[key] = current
		}
	}
	return warnings
}

func last(scenes []*movie.Scene) *movie.Scene {
	if len(scenes) == 0 {
		return nil
	}
	return scenes[len(scenes)-1]
}
