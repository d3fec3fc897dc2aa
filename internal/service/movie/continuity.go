package movie

import "baytt/internal/model/movie"

// ContinuityEntry 连续性计划中的一个节点
// Prev/Next 是 arena 中的下标，-1 表示没有
type ContinuityEntry struct {
	SceneNumber    int
	IsContinuation bool // 使用上一场景的尾帧作为参考帧
	Prev           int
	Next           int
}

// ContinuityPlan 场景衔接链
// 节点保存在 arena 中，按场景号索引；
// 只有声明为承接且前一场景确实存在时才连上 Prev，
// 因此场景被过滤或重排后 "承接自哪一场" 仍然明确
type ContinuityPlan struct {
	arena []ContinuityEntry
	index map[int]int // scene number -> arena 下标
}

// BuildContinuityPlan 根据剧本声明的承接标记构建衔接链
// 第一场永远不承接；每一场最多被下一场消费一次尾帧
func BuildContinuityPlan(sp *movie.Screenplay) *ContinuityPlan {
	p := &ContinuityPlan{
		arena: make([]ContinuityEntry, 0, len(sp.Scenes)),
		index: make(map[int]int, len(sp.Scenes)),
	}
	for i, s := range sp.Scenes {
		entry := ContinuityEntry{SceneNumber: s.Number, Prev: -1, Next: -1}
		if i > 0 && s.Continuity.IsContinuation {
			prev := len(p.arena) - 1
			if p.arena[prev].SceneNumber == s.Number-1 {
				entry.IsContinuation = true
				entry.Prev = prev
				p.arena[prev].Next = len(p.arena)
			}
		}
		p.index[s.Number] = len(p.arena)
		p.arena = append(p.arena, entry)
	}
	return p
}

// Entry 按场景号查找节点
func (p *ContinuityPlan) Entry(sceneNumber int) (ContinuityEntry, bool) {
	i, ok := p.index[sceneNumber]
	if !ok {
		return ContinuityEntry{SceneNumber: sceneNumber, Prev: -1, Next: -1}, false
	}
	return p.arena[i], true
}

// ContinuesFrom 承接的场景号，不承接返回 0
func (p *ContinuityPlan) ContinuesFrom(sceneNumber int) int {
	e, ok := p.Entry(sceneNumber)
	if !ok || e.Prev < 0 {
		return 0
	}
	return p.arena[e.Prev].SceneNumber
}

// LeadsTo 承接本场景的下一场景号，没有返回 0
func (p *ContinuityPlan) LeadsTo(sceneNumber int) int {
	e, ok := p.Entry(sceneNumber)
	if !ok || e.Next < 0 {
		return 0
	}
	return p.arena[e.Next].SceneNumber
}

// Len 节点数
func (p *ContinuityPlan) Len() int {
	return len(p.arena)
}

// Chains 连续承接的场景组，例如 [[1,2,3],[4],[5,6]]
func (p *ContinuityPlan) Chains() [][]int {
	var chains [][]int
	for i, e := range p.arena {
		if e.Prev >= 0 {
			continue
		}
		var chain []int
		for j := i; j >= 0; j = p.arena[j].Next {
			chain = append(chain, p.arena[j].SceneNumber)
		}
		chains = append(chains, chain)
	}
	return chains
}
