package movie

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/id"
	"baytt/internal/pkg/movietools"
	movierepo "baytt/internal/repository/movie"
)

// VoiceAssignmentCache 每部电影的角色音色分配
// 实现为 cache.RedisCache；SaveVoices 只写入不存在的角色
type VoiceAssignmentCache interface {
	LoadVoices(ctx context.Context, movieID string) (map[string]string, error)
	SaveVoices(ctx context.Context, movieID string, voices map[string]string) error
}

// VoicePools 按性别划分的音色池
type VoicePools struct {
	Male    []string
	Female  []string
	Neutral []string
}

// pool 返回性别对应的音色池及其名称，对应池为空时退回全部音色（名称 all）
// 轮转计数按池名称累计，不同的性别写法落到同一个池时共用计数
func (p VoicePools) pool(gender string) (string, []string) {
	name, pool := "neutral", p.Neutral
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "man", "m":
		name, pool = "male", p.Male
	case "female", "woman", "f":
		name, pool = "female", p.Female
	}
	if len(pool) > 0 {
		return name, pool
	}
	all := make([]string, 0, len(p.Male)+len(p.Female)+len(p.Neutral))
	all = append(all, p.Neutral...)
	all = append(all, p.Male...)
	return "all", append(all, p.Female...)
}

// AudioReport 台词音频生成结果
type AudioReport struct {
	Tracks    []*movie.DialogueAudio // 成功的音轨，按场景号、台词序号排序
	Generated int
	Skipped   int // 配额不足跳过
	Failed    int
	LipSynced int
}

// AudioGenerator 台词音频生成
type AudioGenerator struct {
	voice       movietools.VoiceProvider
	lipsync     movietools.LipSyncProvider
	store       ArtifactStore
	audios      movierepo.DialogueAudioRepository
	videos      movierepo.SceneVideoRepository
	assignments VoiceAssignmentCache
	pools       VoicePools
	concurrency int
	cleaner     *movietools.TextCleaner
}

// NewAudioGenerator 创建台词音频生成器
// lipsync 与 assignments 可为空
func NewAudioGenerator(
	voice movietools.VoiceProvider,
	lipsync movietools.LipSyncProvider,
	store ArtifactStore,
	audios movierepo.DialogueAudioRepository,
	videos movierepo.SceneVideoRepository,
	assignments VoiceAssignmentCache,
	pools VoicePools,
	concurrency int,
) *AudioGenerator {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &AudioGenerator{
		voice:       voice,
		lipsync:     lipsync,
		store:       store,
		audios:      audios,
		videos:      videos,
		assignments: assignments,
		pools:       pools,
		concurrency: concurrency,
		cleaner:     movietools.NewTextCleaner(),
	}
}

// AssignVoices 计算角色音色，同一部电影只计算一次
// 优先级：缓存中已有分配 > 视觉约定里显式指定 > 按性别在音色池中轮转
func (g *AudioGenerator) AssignVoices(ctx context.Context, movieID string, bible *movie.VisualBible, sp *movie.Screenplay) map[string]string {
	voices := make(map[string]string)
	if g.assignments != nil {
		cached, err := g.assignments.LoadVoices(ctx, movieID)
		if err != nil {
			log.Warn().Err(err).Str("movie_id", movieID).Msg("读取音色分配失败")
		}
		for k, v := range cached {
			voices[k] = v
		}
	}

	counters := make(map[string]int)
	for _, name := range speakingOrder(bible, sp) {
		key := voiceKey(name)
		if _, ok := voices[key]; ok {
			continue
		}
		gender := ""
		if profile, ok := bible.Character(name); ok {
			if profile.Voice.VoiceID != "" {
				voices[key] = profile.Voice.VoiceID
				continue
			}
			gender = profile.Voice.Gender
		}
		bucket, pool := g.pools.pool(gender)
		if len(pool) == 0 {
			continue
		}
		voices[key] = pool[counters[bucket]%len(pool)]
		counters[bucket]++
	}

	if g.assignments != nil && len(voices) > 0 {
		if err := g.assignments.SaveVoices(ctx, movieID, voices); err != nil {
			log.Warn().Err(err).Str("movie_id", movieID).Msg("保存音色分配失败")
		} else if stored, err := g.assignments.LoadVoices(ctx, movieID); err == nil && len(stored) > 0 {
			// 并发写入时以先写入者为准
			for k, v := range stored {
				voices[k] = v
			}
		}
	}
	return voices
}

// speakingOrder 角色顺序：视觉约定中的角色在前，其余按首次开口的顺序
func speakingOrder(bible *movie.VisualBible, sp *movie.Screenplay) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[voiceKey(name)] {
			return
		}
		seen[voiceKey(name)] = true
		names = append(names, name)
	}
	for _, c := range bible.Characters {
		add(c.Name)
	}
	for _, s := range sp.Scenes {
		for _, d := range s.Dialogue {
			add(d.Character)
		}
	}
	return names
}

func voiceKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Delivery 语音合成参数
type Delivery struct {
	Stability  float64
	Similarity float64
	Style      float64
}

// DeliveryFor 由台词的情绪、语速、语气推导合成参数
func DeliveryFor(line movie.DialogueLine) Delivery {
	d := Delivery{Stability: 0.5, Similarity: 0.75, Style: 0.3}

	emotion := strings.ToLower(line.Emotion)
	switch {
	case containsAny(emotion, "angry", "furious", "rage", "excited", "scared", "panic", "terrified", "desperate"):
		d.Stability, d.Style = 0.3, 0.7
	case containsAny(emotion, "sad", "grief", "melancholy", "tender", "regret"):
		d.Stability, d.Style = 0.55, 0.45
	case containsAny(emotion, "whisper", "secret", "nervous"):
		d.Stability, d.Style = 0.6, 0.4
	case containsAny(emotion, "calm", "neutral", "cold", "flat"):
		d.Stability, d.Style = 0.7, 0.15
	}

	switch strings.ToLower(strings.TrimSpace(line.Pace)) {
	case "fast", "rapid", "quick":
		d.Stability -= 0.1
	case "slow", "measured":
		d.Stability += 0.1
	}

	tone := strings.ToLower(line.Tone)
	switch {
	case containsAny(tone, "dramatic", "intense", "menacing"):
		d.Style += 0.15
	case containsAny(tone, "monotone", "deadpan", "dry"):
		d.Style -= 0.15
		d.Stability += 0.1
	}

	d.Stability = clamp01(d.Stability)
	d.Style = clamp01(d.Style)
	return d
}

// GenerateAudio 为已完成场景的台词合成语音
// 配额不足的台词跳过，其余错误记为失败，都不会中断流程；
// 启用口型同步时，只有一句台词的场景会合成到视频上
func (g *AudioGenerator) GenerateAudio(
	ctx context.Context,
	movieID string,
	bible *movie.VisualBible,
	sp *movie.Screenplay,
	videos map[int]*movie.SceneVideo,
	progress func(done, total int),
) (*AudioReport, error) {
	voices := g.AssignVoices(ctx, movieID, bible, sp)
	report := &AudioReport{}

	var scenes []*movie.Scene
	for _, s := range sp.Scenes {
		if v, ok := videos[s.Number]; ok && v.Status == movie.SceneStatusCompleted {
			scenes = append(scenes, s)
		}
	}

	for i, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		tracks := g.generateScene(ctx, movieID, scene, voices, report)
		report.Tracks = append(report.Tracks, tracks...)

		if g.lipsync != nil && len(tracks) == 1 {
			g.syncLips(ctx, videos[scene.Number], tracks[0], report)
		}
		if progress != nil {
			progress(i+1, len(scenes))
		}
	}

	sort.SliceStable(report.Tracks, func(i, j int) bool {
		a, b := report.Tracks[i], report.Tracks[j]
		if a.SceneNumber != b.SceneNumber {
			return a.SceneNumber < b.SceneNumber
		}
		return a.LineIndex < b.LineIndex
	})

	log.Info().
		Str("movie_id", movieID).
		Int("generated", report.Generated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("lipsynced", report.LipSynced).
		Msg("台词音频生成完成")
	return report, nil
}

// generateScene 并发合成一个场景的所有台词，并发数受 concurrency 限制
func (g *AudioGenerator) generateScene(
	ctx context.Context,
	movieID string,
	scene *movie.Scene,
	voices map[string]string,
	report *AudioReport,
) []*movie.DialogueAudio {
	results := make([]*movie.DialogueAudio, len(scene.Dialogue))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, line := range scene.Dialogue {
		eg.Go(func() error {
			results[i] = g.synthesizeLine(egCtx, movieID, scene.Number, i, line, voices[voiceKey(line.Character)])
			return nil
		})
	}
	_ = eg.Wait()

	var tracks []*movie.DialogueAudio
	for _, a := range results {
		if a == nil {
			continue
		}
		switch a.Status {
		case movie.AudioStatusCompleted:
			report.Generated++
			tracks = append(tracks, a)
		case movie.AudioStatusSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		if err := g.audios.Create(ctx, a); err != nil {
			log.Error().Err(err).Str("movie_id", movieID).Int("scene_number", scene.Number).Msg("保存台词音频记录失败")
		}
	}
	return tracks
}

func (g *AudioGenerator) synthesizeLine(
	ctx context.Context,
	movieID string,
	sceneNumber, lineIndex int,
	line movie.DialogueLine,
	voiceID string,
) *movie.DialogueAudio {
	delivery := DeliveryFor(line)
	record := &movie.DialogueAudio{
		ID:          id.New(),
		MovieID:     movieID,
		SceneNumber: sceneNumber,
		LineIndex:   lineIndex,
		Character:   line.Character,
		VoiceID:     voiceID,
		Text:        line.Text,
		Start:       line.Start,
		Duration:    line.Duration,
		Stability:   delivery.Stability,
		Similarity:  delivery.Similarity,
		Style:       delivery.Style,
		CreatedAt:   time.Now(),
	}
	logger := log.With().Str("movie_id", movieID).Int("scene_number", sceneNumber).Int("line", lineIndex).Logger()

	text := g.cleaner.CleanForSpeech(line.Text)
	if text == "" {
		record.Status = movie.AudioStatusSkipped
		record.ErrorMessage = "empty text after cleaning"
		return record
	}
	if voiceID == "" {
		record.Status = movie.AudioStatusFailed
		record.ErrorMessage = "no voice available for " + line.Character
		logger.Warn().Str("character", line.Character).Msg("没有可用音色")
		return record
	}

	result, err := g.voice.Synthesize(ctx, &movietools.SpeechRequest{
		Text:       text,
		VoiceID:    voiceID,
		Stability:  delivery.Stability,
		Similarity: delivery.Similarity,
		Style:      delivery.Style,
	})
	if err != nil {
		record.ErrorMessage = err.Error()
		if apperrors.IsQuotaError(err) {
			record.Status = movie.AudioStatusSkipped
			logger.Warn().Err(err).Msg("语音配额不足，跳过该句")
		} else {
			record.Status = movie.AudioStatusFailed
			logger.Error().Err(err).Msg("语音合成失败")
		}
		return record
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	url, err := g.store.Put(ctx, movieID, "audio", result.AudioData, contentType)
	if err != nil {
		record.Status = movie.AudioStatusFailed
		record.ErrorMessage = err.Error()
		logger.Error().Err(err).Msg("上传台词音频失败")
		return record
	}
	record.AudioURL = url
	record.Status = movie.AudioStatusCompleted
	return record
}

// syncLips 口型同步，失败只记日志
func (g *AudioGenerator) syncLips(ctx context.Context, video *movie.SceneVideo, track *movie.DialogueAudio, report *AudioReport) {
	url, err := g.lipsync.Sync(ctx, video.VideoURL, track.AudioURL)
	if err != nil {
		level := log.Error()
		if apperrors.IsQuotaError(err) {
			level = log.Warn()
		}
		level.Err(err).Str("movie_id", video.MovieID).Int("scene_number", video.SceneNumber).Msg("口型同步失败，使用原视频")
		return
	}
	if err := g.videos.UpdateLipSync(ctx, video.ID, url); err != nil {
		log.Error().Err(err).Str("movie_id", video.MovieID).Int("scene_number", video.SceneNumber).Msg("保存口型同步结果失败")
	}
	video.LipSyncURL = url
	report.LipSynced++
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
