package movie

// ProductionPlan 资源计划
// 哪些地点和角色可以复用资源库，哪些需要新生成，哪些场景承接上一场
type ProductionPlan struct {
	Locations  []PlannedResource `bson:"locations" json:"locations"`
	Characters []PlannedResource `bson:"characters" json:"characters"`
	Skeleton   []SceneSkeleton   `bson:"skeleton" json:"skeleton"`
}

// PlannedResource 计划中的单个资源
type PlannedResource struct {
	Name        string         `bson:"name" json:"name"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Status      ResourceStatus `bson:"status" json:"status"`
	LibraryID   string         `bson:"library_id,omitempty" json:"library_id,omitempty"`
	MatchedName string         `bson:"matched_name,omitempty" json:"matched_name,omitempty"`
	MatchType   string         `bson:"match_type,omitempty" json:"match_type,omitempty"` // exact, fuzzy
}

// SceneSkeleton 场景骨架
type SceneSkeleton struct {
	Number            int    `bson:"number" json:"number"`
	Location          string `bson:"location" json:"location"`
	TimeOfDay         string `bson:"time_of_day" json:"time_of_day"`
	Summary           string `bson:"summary" json:"summary"`
	ContinuesPrevious bool   `bson:"continues_previous" json:"continues_previous"`
}

// Found 复用资源库的数量
func (p *ProductionPlan) Found() int {
	n := 0
	for _, r := range p.Locations {
		if r.Status == ResourceStatusFound {
			n++
		}
	}
	for _, r := range p.Characters {
		if r.Status == ResourceStatusFound {
			n++
		}
	}
	return n
}
