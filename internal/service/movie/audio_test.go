package movie

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"baytt/internal/model/movie"
)

func TestAudioGenerator_AssignVoices(t *testing.T) {
	ctx := context.Background()
	pools := VoicePools{Male: []string{"m1", "m2"}, Female: []string{"f1"}}

	bible := noirBible()
	bible.Characters = []movie.CharacterProfile{
		{Name: "Detective Cole", Voice: movie.VoiceProfile{Gender: "male"}},
		{Name: "Vera", Voice: movie.VoiceProfile{Gender: "female"}},
		{Name: "Captain Hale", Voice: movie.VoiceProfile{Gender: "male", VoiceID: "custom-hale"}},
		{Name: "Rourke", Voice: movie.VoiceProfile{Gender: "male"}},
	}
	sp := &movie.Screenplay{Scenes: []*movie.Scene{{
		Number: 1,
		Dialogue: []movie.DialogueLine{
			{Character: "Stranger", Text: "Got a light?"},
			{Character: "VERA", Text: "No."},
		},
	}}}

	Convey("AssignVoices", t, func() {
		Convey("按性别轮转，显式音色优先", func() {
			voices := NewAudioGenerator(nil, nil, nil, nil, nil, nil, pools, 0).AssignVoices(ctx, "m1", bible, sp)
			So(voices["detective cole"], ShouldEqual, "m1")
			So(voices["vera"], ShouldEqual, "f1")
			So(voices["captain hale"], ShouldEqual, "custom-hale")
			So(voices["rourke"], ShouldEqual, "m2")
			// 不在视觉约定中的角色使用全部音色池
			So(voices["stranger"], ShouldEqual, "m1")
		})

		Convey("性别写法不同但落到同一个池时继续轮转", func() {
			mixed := noirBible()
			mixed.Characters = []movie.CharacterProfile{
				{Name: "Cole", Voice: movie.VoiceProfile{Gender: "male"}},
				{Name: "Rourke", Voice: movie.VoiceProfile{Gender: "Man"}},
				{Name: "Ash", Voice: movie.VoiceProfile{Gender: ""}},
				{Name: "Quinn", Voice: movie.VoiceProfile{Gender: "other"}},
			}
			neutral := VoicePools{Male: []string{"m1", "m2"}, Neutral: []string{"n1", "n2"}}
			voices := NewAudioGenerator(nil, nil, nil, nil, nil, nil, neutral, 0).AssignVoices(ctx, "m1", mixed, &movie.Screenplay{})
			So(voices["cole"], ShouldEqual, "m1")
			So(voices["rourke"], ShouldEqual, "m2")
			So(voices["ash"], ShouldEqual, "n1")
			So(voices["quinn"], ShouldEqual, "n2")
		})

		Convey("同一部电影的分配被缓存", func() {
			cache := &fakeVoiceCache{}
			gen := NewAudioGenerator(nil, nil, nil, nil, nil, cache, pools, 0)
			first := gen.AssignVoices(ctx, "m1", bible, sp)

			reversed := VoicePools{Male: []string{"m2", "m1"}, Female: []string{"f1"}}
			second := NewAudioGenerator(nil, nil, nil, nil, nil, cache, reversed, 0).AssignVoices(ctx, "m1", bible, sp)
			So(second, ShouldResemble, first)

			other := gen.AssignVoices(ctx, "m2", bible, sp)
			So(other["detective cole"], ShouldEqual, "m1")
		})
	})
}

func TestDeliveryFor(t *testing.T) {
	Convey("DeliveryFor", t, func() {
		So(DeliveryFor(movie.DialogueLine{}), ShouldResemble, Delivery{Stability: 0.5, Similarity: 0.75, Style: 0.3})

		angry := DeliveryFor(movie.DialogueLine{Emotion: "Angry", Pace: "fast"})
		So(angry.Stability, ShouldAlmostEqual, 0.2, 1e-9)
		So(angry.Style, ShouldAlmostEqual, 0.7, 1e-9)

		calm := DeliveryFor(movie.DialogueLine{Emotion: "calm", Pace: "slow", Tone: "monotone"})
		So(calm.Stability, ShouldAlmostEqual, 0.9, 1e-9)
		So(calm.Style, ShouldAlmostEqual, 0.0, 1e-9)

		dramatic := DeliveryFor(movie.DialogueLine{Emotion: "sad", Tone: "dramatic"})
		So(dramatic.Style, ShouldAlmostEqual, 0.6, 1e-9)
		So(dramatic.Similarity, ShouldEqual, 0.75)
	})
}

func TestAudioGenerator_GenerateAudio(t *testing.T) {
	ctx := context.Background()

	Convey("GenerateAudio", t, func() {
		voice := &fakeVoice{quotaFor: map[string]bool{"Out of credits line.": true}}
		lipsync := &fakeLipSync{}
		audios := &memAudioRepo{}
		videoRepo := &memVideoRepo{}
		gen := NewAudioGenerator(voice, lipsync, &fakeStore{}, audios, videoRepo, nil,
			VoicePools{Male: []string{"m1"}, Female: []string{"f1"}}, 2)

		sp := &movie.Screenplay{Scenes: []*movie.Scene{
			{Number: 1, Dialogue: []movie.DialogueLine{
				{Character: "Detective Cole", Text: "(quietly) Who found her?", Start: 0.5},
				{Character: "Detective Cole", Text: "Out of credits line.", Start: 2},
			}},
			{Number: 2, Dialogue: []movie.DialogueLine{{Character: "Detective Cole", Text: "Never rendered."}}},
			{Number: 3, Dialogue: []movie.DialogueLine{{Character: "Detective Cole", Text: "Just one line.", Start: 1}}},
			{Number: 4, Dialogue: []movie.DialogueLine{{Character: "Detective Cole", Text: "[sighs]"}}},
		}}
		videos := map[int]*movie.SceneVideo{
			1: {ID: "v1", MovieID: "m1", SceneNumber: 1, Status: movie.SceneStatusCompleted, VideoURL: "https://video.example.com/task-1.mp4"},
			2: {ID: "v2", MovieID: "m1", SceneNumber: 2, Status: movie.SceneStatusFailed},
			3: {ID: "v3", MovieID: "m1", SceneNumber: 3, Status: movie.SceneStatusCompleted, VideoURL: "https://video.example.com/task-3.mp4"},
			4: {ID: "v4", MovieID: "m1", SceneNumber: 4, Status: movie.SceneStatusCompleted, VideoURL: "https://video.example.com/task-4.mp4"},
		}
		for _, v := range videos {
			So(videoRepo.Create(ctx, v), ShouldBeNil)
		}

		var progress [][2]int
		report, err := gen.GenerateAudio(ctx, "m1", noirBible(), sp, videos, func(done, total int) {
			progress = append(progress, [2]int{done, total})
		})
		So(err, ShouldBeNil)

		Convey("只处理已完成场景，配额不足跳过", func() {
			So(report.Generated, ShouldEqual, 2)
			So(report.Skipped, ShouldEqual, 2) // 配额 + 清理后为空
			So(report.Failed, ShouldEqual, 0)
			for _, r := range voice.requests {
				So(r.Text, ShouldNotEqual, "Never rendered.")
				So(r.VoiceID, ShouldEqual, "m1")
			}
			So(voice.requests, ShouldHaveLength, 3)
			So(len(audios.audios), ShouldEqual, 4)
			So(progress, ShouldResemble, [][2]int{{1, 3}, {2, 3}, {3, 3}})
		})

		Convey("台词文本去掉表演提示", func() {
			texts := map[string]bool{}
			for _, r := range voice.requests {
				texts[r.Text] = true
			}
			So(texts["Who found her?"], ShouldBeTrue)
		})

		Convey("音轨按场景和台词排序", func() {
			So(report.Tracks, ShouldHaveLength, 2)
			So(report.Tracks[0].SceneNumber, ShouldEqual, 1)
			So(report.Tracks[0].Start, ShouldEqual, 0.5)
			So(report.Tracks[1].SceneNumber, ShouldEqual, 3)
		})

		Convey("只有一条音轨的场景做口型同步", func() {
			So(report.LipSynced, ShouldEqual, 2)
			So(lipsync.calls, ShouldEqual, 2)
			So(videos[3].LipSyncURL, ShouldEqual, "https://video.example.com/task-3_lipsync.mp4")
			So(videos[3].PlayableURL(), ShouldEqual, videos[3].LipSyncURL)
			stored, _ := videoRepo.FindByMovieID(ctx, "m1")
			var synced int
			for _, v := range stored {
				if v.LipSyncURL != "" {
					synced++
				}
			}
			So(synced, ShouldEqual, 2)
		})
	})

	Convey("口型同步失败时保留原视频", t, func() {
		gen := NewAudioGenerator(&fakeVoice{}, &fakeLipSync{err: errors.New("busy")}, &fakeStore{}, &memAudioRepo{}, &memVideoRepo{}, nil,
			VoicePools{Neutral: []string{"n1"}}, 1)
		sp := &movie.Screenplay{Scenes: []*movie.Scene{{Number: 1, Dialogue: []movie.DialogueLine{{Character: "Vera", Text: "Hello."}}}}}
		videos := map[int]*movie.SceneVideo{1: {ID: "v1", SceneNumber: 1, Status: movie.SceneStatusCompleted, VideoURL: "https://video.example.com/a.mp4"}}

		report, err := gen.GenerateAudio(context.Background(), "m1", noirBible(), sp, videos, nil)
		So(err, ShouldBeNil)
		So(report.Generated, ShouldEqual, 1)
		So(report.LipSynced, ShouldEqual, 0)
		So(videos[1].LipSyncURL, ShouldBeEmpty)
	})
}
