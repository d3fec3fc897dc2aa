package movie

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	apperrors "baytt/internal/errors"
	"baytt/internal/model/movie"
	"baytt/internal/pkg/movietools"
	movierepo "baytt/internal/repository/movie"
)

// ---- providers ----

type fakeText struct {
	mu      sync.Mutex
	handler func(req *movietools.TextRequest) (string, error)
	calls   []*movietools.TextRequest
}

func (f *fakeText) Generate(ctx context.Context, req *movietools.TextRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.handler(req)
}

type fakeImages struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (f *fakeImages) GenerateImages(ctx context.Context, prompt, size string, count int) ([]movietools.GeneratedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return []movietools.GeneratedImage{{Data: []byte("\x89PNG-location"), ContentType: "image/png"}}, nil
}

type fakeVideo struct {
	mu        sync.Mutex
	requests  []*movietools.VideoRequest
	failAt    map[int]error // 第 N 次提交（从 1 开始）的任务失败
	noFrame   bool          // 不返回服务端尾帧
	emptyURL  bool
	duration  float64 // 服务端报告的时长
	submitted int
}

func (f *fakeVideo) Submit(ctx context.Context, req *movietools.VideoRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted++
	f.requests = append(f.requests, req)
	return fmt.Sprintf("task-%d", f.submitted), nil
}

func (f *fakeVideo) Wait(ctx context.Context, taskID string) (*movietools.VideoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	fmt.Sscanf(taskID, "task-%d", &n)
	if err, ok := f.failAt[n]; ok {
		return nil, err
	}
	res := &movietools.VideoResult{TaskID: taskID, VideoURL: "https://video.example.com/" + taskID + ".mp4"}
	if f.emptyURL {
		res.VideoURL = ""
	}
	res.Duration = f.duration
	if !f.noFrame {
		res.LastFrameURL = "https://video.example.com/" + taskID + "_last.jpg"
	}
	return res, nil
}

type fakeFrames struct {
	err      error
	calls    int
	duration float64 // ProbeDuration 返回值
	probeErr error
	probes   int
}

func (f *fakeFrames) ExtractLastFrame(ctx context.Context, videoURL string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("jpeg-frame"), nil
}

func (f *fakeFrames) ProbeDuration(ctx context.Context, videoURL string) (float64, error) {
	f.probes++
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.duration, nil
}

type fakeVoice struct {
	mu       sync.Mutex
	requests []*movietools.SpeechRequest
	quotaFor map[string]bool // 按文本触发配额错误
}

func (f *fakeVoice) Synthesize(ctx context.Context, req *movietools.SpeechRequest) (*movietools.SpeechResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.quotaFor[req.Text] {
		return nil, apperrors.NewQuotaError("quota exceeded", nil)
	}
	return &movietools.SpeechResult{AudioData: []byte("mp3:" + req.Text), ContentType: "audio/mpeg"}, nil
}

type fakeLipSync struct {
	calls int
	err   error
}

func (f *fakeLipSync) Sync(ctx context.Context, videoURL, audioURL string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return strings.TrimSuffix(videoURL, ".mp4") + "_lipsync.mp4", nil
}

type fakeRender struct {
	requests []*movietools.RenderRequest
	err      error
	empty    bool
}

func (f *fakeRender) Render(ctx context.Context, req *movietools.RenderRequest) (*movietools.RenderResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return &movietools.RenderResult{}, nil
	}
	return &movietools.RenderResult{VideoURL: "https://cdn.example.com/" + req.MovieID + "/final.mp4", DurationSeconds: 42, SizeBytes: 1 << 20}, nil
}

type fakeStore struct {
	mu   sync.Mutex
	puts int
	err  error
}

func (f *fakeStore) Put(ctx context.Context, movieID, kind string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.puts++
	return fmt.Sprintf("https://store.example.com/movies/%s/%s/%d", movieID, kind, f.puts), nil
}

type fakeVoiceCache struct {
	mu     sync.Mutex
	voices map[string]map[string]string
}

func (f *fakeVoiceCache) LoadVoices(ctx context.Context, movieID string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.voices[movieID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeVoiceCache) SaveVoices(ctx context.Context, movieID string, voices map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voices == nil {
		f.voices = map[string]map[string]string{}
	}
	if f.voices[movieID] == nil {
		f.voices[movieID] = map[string]string{}
	}
	for k, v := range voices {
		if _, ok := f.voices[movieID][k]; !ok {
			f.voices[movieID][k] = v
		}
	}
	return nil
}

// ---- repositories ----

type memMovieRepo struct {
	mu       sync.Mutex
	movies   map[string]*movie.Movie
	progress []int
}

var _ movierepo.MovieRepository = (*memMovieRepo)(nil)

func newMemMovieRepo() *memMovieRepo {
	return &memMovieRepo{movies: map[string]*movie.Movie{}}
}

func (r *memMovieRepo) Create(ctx context.Context, m *movie.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.movies[m.ID] = &cp
	return nil
}

func (r *memMovieRepo) FindByID(ctx context.Context, id string) (*movie.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *m
	return &cp, nil
}

func (r *memMovieRepo) Update(ctx context.Context, id string, u *movie.MovieUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if u.Status != "" {
		m.Status = u.Status
	}
	if u.Stage != "" {
		m.Stage = u.Stage
	}
	if u.Progress > m.Progress {
		m.Progress = u.Progress
	}
	if u.Progress > 0 {
		r.progress = append(r.progress, u.Progress)
	}
	if u.Bible != nil {
		m.Bible = u.Bible
	}
	if u.Plan != nil {
		m.Plan = u.Plan
	}
	if u.SceneCount != nil {
		m.SceneCount = *u.SceneCount
	}
	if u.Completed != nil {
		m.CompletedScenes = *u.Completed
	}
	if u.FinalVideoURL != "" {
		m.FinalVideoURL = u.FinalVideoURL
	}
	if u.AssemblyStatus != "" {
		m.AssemblyStatus = u.AssemblyStatus
	}
	if u.ErrorMessage != "" {
		m.ErrorMessage = u.ErrorMessage
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	for k, v := range u.Metadata {
		m.Metadata[k] = v
	}
	return nil
}

type memSceneRepo struct {
	mu     sync.Mutex
	scenes map[string][]*movie.Scene
}

func newMemSceneRepo() *memSceneRepo {
	return &memSceneRepo{scenes: map[string][]*movie.Scene{}}
}

func (r *memSceneRepo) CreateMany(ctx context.Context, scenes []*movie.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range scenes {
		cp := *s
		r.scenes[s.MovieID] = append(r.scenes[s.MovieID], &cp)
	}
	return nil
}

func (r *memSceneRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.Scene, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scenes[movieID], nil
}

func (r *memSceneRepo) UpdateStatus(ctx context.Context, movieID string, number int, status movie.SceneStatus, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.scenes[movieID] {
		if s.Number == number {
			s.Status = status
			s.Error = errorMsg
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type memVideoRepo struct {
	mu     sync.Mutex
	videos []*movie.SceneVideo
}

func (r *memVideoRepo) Create(ctx context.Context, v *movie.SceneVideo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.videos = append(r.videos, &cp)
	return nil
}

func (r *memVideoRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.SceneVideo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.SceneVideo
	for _, v := range r.videos {
		if v.MovieID == movieID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memVideoRepo) UpdateLipSync(ctx context.Context, id string, lipSyncURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.videos {
		if v.ID == id {
			v.LipSyncURL = lipSyncURL
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type memAudioRepo struct {
	mu     sync.Mutex
	audios []*movie.DialogueAudio
}

func (r *memAudioRepo) Create(ctx context.Context, a *movie.DialogueAudio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audios = append(r.audios, a)
	return nil
}

func (r *memAudioRepo) FindByMovieID(ctx context.Context, movieID string) ([]*movie.DialogueAudio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.DialogueAudio
	for _, a := range r.audios {
		if a.MovieID == movieID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memLocationRepo struct {
	mu         sync.Mutex
	entries    map[string]*movie.LocationImage
	increments map[string]int
	nextID     int
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{entries: map[string]*movie.LocationImage{}, increments: map[string]int{}}
}

func locationKey(slug, timeOfDay, weather string) string {
	return slug + "|" + timeOfDay + "|" + weather
}

func (r *memLocationRepo) FindExact(ctx context.Context, slug, timeOfDay, weather string) (*movie.LocationImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.entries[locationKey(slug, timeOfDay, weather)]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *img
	return &cp, nil
}

func (r *memLocationRepo) FindByTimeOfDay(ctx context.Context, timeOfDay string) ([]*movie.LocationImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.LocationImage
	for _, img := range r.entries {
		if img.TimeOfDay == timeOfDay {
			cp := *img
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memLocationRepo) IncrementUsage(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.entries {
		if img.ID == id {
			img.UsageCount++
			r.increments[id]++
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *memLocationRepo) Upsert(ctx context.Context, img *movie.LocationImage) (*movie.LocationImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := locationKey(img.Slug, img.TimeOfDay, img.Weather)
	if existing, ok := r.entries[key]; ok {
		if movietools.IsPlaceholderURL(existing.ImageURL) && img.ImageURL != "" {
			existing.Name = img.Name
			existing.ImageURL = img.ImageURL
			existing.Prompt = img.Prompt
		}
		cp := *existing
		return &cp, nil
	}
	r.nextID++
	cp := *img
	cp.ID = fmt.Sprintf("loc-%d", r.nextID)
	cp.UsageCount = 0
	r.entries[key] = &cp
	out := cp
	return &out, nil
}

type memLibraryRepo struct {
	assets     []*movie.LibraryAsset
	increments map[string]int
}

func (r *memLibraryRepo) FindByName(ctx context.Context, kind movie.ResourceKind, name string) (*movie.LibraryAsset, error) {
	for _, a := range r.assets {
		if a.Kind == kind && movierepo.NameKey(a.Name) == movierepo.NameKey(name) {
			return a, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memLibraryRepo) ListByKind(ctx context.Context, kind movie.ResourceKind) ([]*movie.LibraryAsset, error) {
	var out []*movie.LibraryAsset
	for _, a := range r.assets {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memLibraryRepo) IncrementUsage(ctx context.Context, id string) error {
	if r.increments == nil {
		r.increments = map[string]int{}
	}
	r.increments[id]++
	return nil
}

func (r *memLibraryRepo) Create(ctx context.Context, a *movie.LibraryAsset) error {
	r.assets = append(r.assets, a)
	return nil
}
