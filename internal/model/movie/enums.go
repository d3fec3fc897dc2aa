package movie

// MovieStatus 电影整体状态
type MovieStatus string

const (
	MovieStatusPending          MovieStatus = "pending"           // 已创建，等待执行
	MovieStatusRunning          MovieStatus = "running"           // 流水线执行中
	MovieStatusCompleted        MovieStatus = "completed"         // 全部完成
	MovieStatusCompletedPartial MovieStatus = "completed_partial" // 有可播放成片，但部分场景或音频缺失
	MovieStatusFailed           MovieStatus = "failed"            // 没有可播放成片
)

// String 返回状态的字符串表示
func (s MovieStatus) String() string {
	return string(s)
}

// Stage 流水线阶段
type Stage string

const (
	StagePlanning        Stage = "planning"
	StageScreenwriting   Stage = "screenwriting"
	StageSceneGeneration Stage = "scene_generation"
	StageAudioGeneration Stage = "audio_generation"
	StageAssembling      Stage = "assembling"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// String 返回阶段的字符串表示
func (s Stage) String() string {
	return string(s)
}

// SceneStatus 场景状态
type SceneStatus string

const (
	SceneStatusPending    SceneStatus = "pending"
	SceneStatusGenerating SceneStatus = "generating"
	SceneStatusCompleted  SceneStatus = "completed"
	SceneStatusFailed     SceneStatus = "failed"
)

// String 返回状态的字符串表示
func (s SceneStatus) String() string {
	return string(s)
}

// IsTerminal 是否为终态
func (s SceneStatus) IsTerminal() bool {
	return s == SceneStatusCompleted || s == SceneStatusFailed
}

// ReferenceSource 参考帧来源
type ReferenceSource string

const (
	ReferenceSourcePreviousFrame ReferenceSource = "previous_frame" // 上一场景的尾帧
	ReferenceSourceLibrary       ReferenceSource = "library"        // 场景图缓存命中
	ReferenceSourceGenerated     ReferenceSource = "generated"      // 新生成并写入缓存
)

// String 返回来源的字符串表示
func (s ReferenceSource) String() string {
	return string(s)
}

// AssemblyStatus 成片合成状态
type AssemblyStatus string

const (
	AssemblyStatusCompleted AssemblyStatus = "completed" // 渲染服务合成成功
	AssemblyStatusFallback  AssemblyStatus = "fallback"  // 渲染失败，退化为第一个场景
	AssemblyStatusSkipped   AssemblyStatus = "skipped"   // 没有可用场景
)

// String 返回状态的字符串表示
func (s AssemblyStatus) String() string {
	return string(s)
}

// AudioStatus 台词音频状态
type AudioStatus string

const (
	AudioStatusCompleted AudioStatus = "completed"
	AudioStatusSkipped   AudioStatus = "skipped" // 配额不足等软失败
	AudioStatusFailed    AudioStatus = "failed"
)

// String 返回状态的字符串表示
func (s AudioStatus) String() string {
	return string(s)
}

// ResourceStatus 制作计划中资源的状态
type ResourceStatus string

const (
	ResourceStatusFound           ResourceStatus = "found"
	ResourceStatusNeedsGeneration ResourceStatus = "needs_generation"
)

// TransitionType 转场类型
type TransitionType string

const (
	TransitionCut      TransitionType = "cut"
	TransitionFade     TransitionType = "fade"
	TransitionDissolve TransitionType = "dissolve"
	TransitionWipe     TransitionType = "wipe"
)

// BlendDuration 转场混合时长（秒）
func (t TransitionType) BlendDuration() float64 {
	switch t {
	case TransitionFade:
		return 1.0
	case TransitionDissolve:
		return 0.75
	case TransitionWipe:
		return 0.5
	default:
		return 0
	}
}

// ParseTransitionType 解析模型返回的转场类型，未知值按硬切处理
func ParseTransitionType(s string) TransitionType {
	switch TransitionType(normalizeToken(s)) {
	case TransitionFade, "fade_in", "fade_out", "fade_to_black":
		return TransitionFade
	case TransitionDissolve, "cross_dissolve", "crossfade":
		return TransitionDissolve
	case TransitionWipe:
		return TransitionWipe
	default:
		return TransitionCut
	}
}

// ResourceKind 资源库条目类型
type ResourceKind string

const (
	ResourceKindLocation  ResourceKind = "location"
	ResourceKindCharacter ResourceKind = "character"
)
