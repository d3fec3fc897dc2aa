package movie

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/jsonrepair"
	"baytt/internal/pkg/movietools"
	movierepo "baytt/internal/repository/movie"
)

// fuzzyThreshold 资源库模糊匹配的最低相似度
const fuzzyThreshold = 0.5

// Planner 创建视觉约定与资源计划
type Planner struct {
	text      movietools.TextProvider
	library   movierepo.LibraryRepository
	maxTokens int
}

// NewPlanner 创建 Planner
func NewPlanner(text movietools.TextProvider, library movierepo.LibraryRepository, maxTokens int) *Planner {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Planner{text: text, library: library, maxTokens: maxTokens}
}

// CreateVisualBible 生成视觉约定
// 模型输出无法修复时返回保守的默认约定，不因创意内容格式问题中断流程；
// 文本服务本身出错时返回 ProviderError
func (p *Planner) CreateVisualBible(ctx context.Context, title, brief, genre string, durationMinutes float64) (*movie.VisualBible, error) {
	userPrompt := fmt.Sprintf("Title: %s\nGenre: %s\nTarget duration: %.1f minutes\n\nBrief:\n%s",
		title, genre, durationMinutes, brief)

	content, err := p.text.Generate(ctx, &movietools.TextRequest{
		SystemPrompt: bibleSystemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    p.maxTokens,
		Temperature:  0.7,
	})
	if err != nil {
		return nil, apperrors.NewProviderError("generate visual bible", err)
	}

	bible, err := ParseVisualBible(content, title, genre)
	if err != nil {
		log.Warn().Err(err).Str("title", title).Msg("视觉约定解析失败，使用默认约定")
		return movie.DefaultBible(title, genre), nil
	}

	log.Info().
		Str("title", title).
		Int("characters", len(bible.Characters)).
		Int("locations", len(bible.Locations)).
		Msg("视觉约定已生成")
	return bible, nil
}

// ParseVisualBible 解析模型返回的视觉约定，失败返回 ParseError
func ParseVisualBible(content, title, genre string) (*movie.VisualBible, error) {
	var bible movie.VisualBible
	if err := jsonrepair.Unmarshal(content, &bible); err != nil {
		return nil, apperrors.NewParseError("parse visual bible", err)
	}
	bible.Fallback = false
	bible.Normalize(title, genre)

	// 没有角色也没有风格信息的结果等同于空对象
	if bible.Tone == "" && len(bible.Palette.Primary) == 0 && len(bible.Characters) == 0 && len(bible.Locations) == 0 {
		return nil, apperrors.NewParseError("visual bible is empty", nil)
	}
	return &bible, nil
}

// planResponse 资源计划的模型输出
type planResponse struct {
	Locations  []plannedItem         `json:"locations"`
	Characters []plannedItem         `json:"characters"`
	Skeleton   []movie.SceneSkeleton `json:"skeleton"`
}

type plannedItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PlanProduction 提取地点、角色和场景骨架，并与共享资源库匹配
// 匹配顺序：名称精确匹配，其次分词模糊匹配；命中计数 +1
func (p *Planner) PlanProduction(ctx context.Context, brief string, bible *movie.VisualBible) (*movie.ProductionPlan, error) {
	content, err := p.text.Generate(ctx, &movietools.TextRequest{
		SystemPrompt: planSystemPrompt,
		UserPrompt:   "Brief:\n" + brief,
		MaxTokens:    p.maxTokens,
		Temperature:  0.3,
	})
	if err != nil {
		return nil, apperrors.NewProviderError("generate production plan", err)
	}

	var resp planResponse
	if err := jsonrepair.Unmarshal(content, &resp); err != nil {
		// 退化为视觉约定中的地点和角色，没有场景骨架
		log.Warn().Err(err).Msg("资源计划解析失败，使用视觉约定中的资源")
		resp = planFromBible(bible)
	}

	plan := &movie.ProductionPlan{Skeleton: resp.Skeleton}
	for _, item := range dedupe(resp.Locations) {
		plan.Locations = append(plan.Locations, p.resolveResource(ctx, movie.ResourceKindLocation, item))
	}
	for _, item := range dedupe(resp.Characters) {
		plan.Characters = append(plan.Characters, p.resolveResource(ctx, movie.ResourceKindCharacter, item))
	}
	for i := range plan.Skeleton {
		if plan.Skeleton[i].Number == 0 {
			plan.Skeleton[i].Number = i + 1
		}
		plan.Skeleton[i].TimeOfDay = movie.NormalizeTimeOfDay(plan.Skeleton[i].TimeOfDay)
	}
	if len(plan.Skeleton) > 0 {
		plan.Skeleton[0].ContinuesPrevious = false
	}

	log.Info().
		Int("locations", len(plan.Locations)).
		Int("characters", len(plan.Characters)).
		Int("found", plan.Found()).
		Msg("资源计划已生成")
	return plan, nil
}

// resolveResource 在资源库中查找一个候选资源
// 资源库查询出错只记日志，资源按需要生成处理
func (p *Planner) resolveResource(ctx context.Context, kind movie.ResourceKind, item plannedItem) movie.PlannedResource {
	res := movie.PlannedResource{
		Name:        item.Name,
		Description: item.Description,
		Status:      movie.ResourceStatusNeedsGeneration,
	}
	if p.library == nil {
		return res
	}

	asset, matchType, err := p.matchLibrary(ctx, kind, item.Name)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Str("name", item.Name).Msg("资源库查询失败")
		return res
	}
	if asset == nil {
		return res
	}

	if err := p.library.IncrementUsage(ctx, asset.ID); err != nil {
		log.Warn().Err(err).Str("library_id", asset.ID).Msg("资源库计数更新失败")
	}
	res.Status = movie.ResourceStatusFound
	res.LibraryID = asset.ID
	res.MatchedName = asset.Name
	res.MatchType = matchType
	if res.Description == "" {
		res.Description = asset.Description
	}
	return res
}

func (p *Planner) matchLibrary(ctx context.Context, kind movie.ResourceKind, name string) (*movie.LibraryAsset, string, error) {
	asset, err := p.library.FindByName(ctx, kind, name)
	if err == nil {
		return asset, "exact", nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", err
	}

	assets, err := p.library.ListByKind(ctx, kind)
	if err != nil {
		return nil, "", err
	}
	var best *movie.LibraryAsset
	bestScore := 0.0
	for _, a := range assets {
		score := movietools.FuzzyMatch(name, a.Name)
		if score > bestScore {
			best, bestScore = a, score
		}
	}
	if best == nil || bestScore < fuzzyThreshold {
		return nil, "", nil
	}
	return best, "fuzzy", nil
}

func planFromBible(bible *movie.VisualBible) planResponse {
	var resp planResponse
	if bible == nil {
		return resp
	}
	for _, l := range bible.Locations {
		resp.Locations = append(resp.Locations, plannedItem{Name: l.Name, Description: l.Description})
	}
	for _, c := range bible.Characters {
		resp.Characters = append(resp.Characters, plannedItem{Name: c.Name, Description: c.Appearance})
	}
	return resp
}

func dedupe(items []plannedItem) []plannedItem {
	seen := make(map[string]bool, len(items))
	out := make([]plannedItem, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		key := movierepo.NameKey(it.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
