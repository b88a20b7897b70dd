package constants

type TaskTemplate string

const (
	TemplateTimeBoxed    TaskTemplate = "time-boxed"
	TemplateQuantitative TaskTemplate = "quantitative"
	TemplateMilestone    TaskTemplate = "milestone"
	TemplateQualitative  TaskTemplate = "qualitative"
)

// TemplateRule holds the scoring table row for a template.
// Bounded is false when the target is not range-checked.
type TemplateRule struct {
	BasePoints    int
	PointsPerUnit int
	MinTarget     int
	MaxTarget     int
	Bounded       bool
	DefaultUnit   string
}

var TaskTemplates = map[TaskTemplate]TemplateRule{
	TemplateTimeBoxed: {
		BasePoints:    10,
		PointsPerUnit: 2,
		MinTarget:     15,
		MaxTarget:     480,
		Bounded:       true,
		DefaultUnit:   "minutes",
	},
	TemplateQuantitative: {
		BasePoints:    5,
		PointsPerUnit: 1,
		MinTarget:     5,
		MaxTarget:     1000,
		Bounded:       true,
		DefaultUnit:   "units",
	},
	TemplateMilestone: {
		BasePoints:    50,
		PointsPerUnit: 10,
		MinTarget:     1,
		MaxTarget:     20,
		Bounded:       true,
		DefaultUnit:   "subtasks",
	},
	TemplateQualitative: {
		BasePoints: 25,
	},
}

func (t TaskTemplate) Rule() (TemplateRule, bool) {
	rule, ok := TaskTemplates[t]
	return rule, ok
}
