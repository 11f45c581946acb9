package highlights

// Variant keys double as storage keys for preview pools and rendered outputs.
const (
	VariantHotTake   = "hot_take"
	VariantChecklist = "checklist"
	VariantStory     = "story"
)

// VariantOrder fixes the presentation and assembly order of the variants.
var VariantOrder = []string{VariantHotTake, VariantChecklist, VariantStory}

// DefaultVariantDurations holds the target clip length per variant in
// seconds, used when the request does not override them.
var DefaultVariantDurations = map[string]float64{
	VariantHotTake:   60,
	VariantChecklist: 75,
	VariantStory:     90,
}

// Strategy describes how one variant ranks, orders, and repairs its
// selection. All three variants run through the same assembler; only the
// table entries differ.
type Strategy struct {
	Key          string
	StrategyName string
	Metric       func(Scored) float64
	Order        func([]Scored) []Scored
	Ensure       func(selected, ranked []Scored) []Scored
}

// Strategies lists the variant plans in assembly order.
func Strategies() []Strategy {
	return []Strategy{
		{
			Key:          VariantHotTake,
			StrategyName: "Hot Take / Pattern Interrupt",
			Metric:       func(s Scored) float64 { return s.HotTake },
			Order:        orderHotTake,
			Ensure:       ensureSolution,
		},
		{
			Key:          VariantChecklist,
			StrategyName: "Checklist / Practical Steps",
			Metric:       func(s Scored) float64 { return s.Checklist },
			Order:        orderChecklist,
			Ensure:       ensureChecklistSteps,
		},
		{
			Key:          VariantStory,
			StrategyName: "Story / Reflection",
			Metric:       func(s Scored) float64 { return s.Story },
			Order:        orderStory,
			Ensure:       ensureSolution,
		},
	}
}

// VariantLabel maps a variant key to its short display name.
func VariantLabel(key string) string {
	switch key {
	case VariantHotTake:
		return "Hot Take"
	case VariantChecklist:
		return "Checklist"
	case VariantStory:
		return "Story"
	default:
		return key
	}
}

// StrategyByKey returns the plan for a variant key.
func StrategyByKey(key string) (Strategy, bool) {
	for _, s := range Strategies() {
		if s.Key == key {
			return s, true
		}
	}
	return Strategy{}, false
}

// VariantMetric returns the ranking metric value for a variant key.
func VariantMetric(key string, s Scored) float64 {
	switch key {
	case VariantChecklist:
		return s.Checklist
	case VariantStory:
		return s.Story
	default:
		return s.HotTake
	}
}
