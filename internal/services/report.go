package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// notAvailable is the explicit bucket for rows missing a value on a report
// field; such rows are grouped, never dropped, so report counts always sum
// to the population size.
const notAvailable = "N/A"

// FieldOption is one allow-listed reportable field as exposed to the report
// builder UI.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type reportField struct {
	name     string
	label    string
	category string
	value    func(*Response) any
}

func intField(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func strField(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// Only these fields may be cross-tabulated; arbitrary storage columns are
// never reachable from the report query.
var reportableFields = []reportField{
	{"avg_fps_pre_cu1", "Avg FPS (pre-CU1)", "performance", func(r *Response) any { return intField(r.AvgFpsPreCu1) }},
	{"avg_fps_post_cu1", "Avg FPS (post-CU1)", "performance", func(r *Response) any { return intField(r.AvgFpsPostCu1) }},
	{"overall_client_stability", "Client Stability", "performance", func(r *Response) any { return intField(r.OverallClientStability) }},
	{"overall_stability", "Overall Stability", "performance", func(r *Response) any { return intField(r.OverallStability) }},
	{"pre_cu1_vs_post", "Pre-CU1 vs Post", "performance", func(r *Response) any { return strField(r.PreCu1VsPost) }},
	{"performance_change", "Performance Change", "performance", func(r *Response) any { return strField(r.PerformanceChange) }},

	{"pre_cu1_quests_rating", "Pre-CU1 Quests Rating", "quests", func(r *Response) any { return intField(r.PreCu1QuestsRating) }},
	{"mother_rating", "Mother Rating", "quests", func(r *Response) any { return intField(r.MotherRating) }},
	{"the_one_before_me_rating", "The One Before Me Rating", "quests", func(r *Response) any { return intField(r.TheOneBeforeMeRating) }},
	{"the_warehouse_rating", "The Warehouse Rating", "quests", func(r *Response) any { return intField(r.TheWarehouseRating) }},
	{"whispers_within_rating", "Whispers Within Rating", "quests", func(r *Response) any { return intField(r.WhispersWithinRating) }},
	{"smile_at_dark_rating", "Smile at Dark Rating", "quests", func(r *Response) any { return intField(r.SmileAtDarkRating) }},
	{"story_engagement", "Story Engagement", "quests", func(r *Response) any { return intField(r.StoryEngagement) }},
	{"overall_quest_story_rating", "Quest Story Rating", "quests", func(r *Response) any { return intField(r.OverallQuestStoryRating) }},
	{"overall_quest_rating", "Overall Quest Rating", "quests", func(r *Response) any { return intField(r.OverallQuestRating) }},

	{"cpu", "CPU", "hardware", func(r *Response) any { return strField(r.Cpu) }},
	{"gpu", "GPU", "hardware", func(r *Response) any { return strField(r.Gpu) }},
	{"ram", "RAM", "hardware", func(r *Response) any { return strField(r.Ram) }},
	{"storage", "Storage", "hardware", func(r *Response) any { return strField(r.Storage) }},
	{"playtime", "Playtime", "hardware", func(r *Response) any { return strField(r.Playtime) }},

	{"age", "Age", "overall", func(r *Response) any { return intField(r.Age) }},
	{"overall_score_post_cu1", "Overall Score (post-CU1)", "overall", func(r *Response) any { return intField(r.OverallScorePostCu1) }},
	{"overall_score", "Overall Score", "overall", func(r *Response) any { return intField(r.OverallScore) }},
}

// ReportableFields returns the allow-list grouped by category for the report
// builder.
func ReportableFields() map[string][]FieldOption {
	grouped := lo.GroupBy(reportableFields, func(f reportField) string { return f.category })
	return lo.MapValues(grouped, func(fields []reportField, _ string) []FieldOption {
		return lo.Map(fields, func(f reportField, _ int) FieldOption {
			return FieldOption{Value: f.name, Label: f.label}
		})
	})
}

func lookupReportField(name string) (reportField, bool) {
	return lo.Find(reportableFields, func(f reportField) bool { return f.name == name })
}

// ReportRow is one (fieldA value, fieldB value, count) triple. It marshals
// keyed by the actual field names, matching the report builder's table
// rendering.
type ReportRow struct {
	field1, field2 string
	Value1         any
	Value2         any
	Count          int
}

func (r ReportRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		r.field1: r.Value1,
		r.field2: r.Value2,
		"count":  r.Count,
	})
}

// Report is a frequency cross-tabulation between two reportable fields.
type Report struct {
	Field1 string      `json:"field1"`
	Field2 string      `json:"field2"`
	Total  int         `json:"total"`
	Data   []ReportRow `json:"data"`
}

// CrossTabulate groups the response set by the pair of values of the two
// named fields. Output is sorted by count descending with first-seen tie
// order, which keeps it deterministic for a fixed input.
func CrossTabulate(responses []*Response, field1, field2 string) (*Report, error) {
	f1, ok := lookupReportField(field1)
	if !ok {
		return nil, NewInvalidError(fmt.Sprintf("unknown report field %q", field1))
	}
	f2, ok := lookupReportField(field2)
	if !ok {
		return nil, NewInvalidError(fmt.Sprintf("unknown report field %q", field2))
	}

	type pairKey struct{ a, b string }
	index := map[pairKey]int{}
	var rows []ReportRow
	for _, r := range responses {
		v1 := bucketValue(f1.value(r))
		v2 := bucketValue(f2.value(r))
		key := pairKey{fmt.Sprint(v1), fmt.Sprint(v2)}
		if i, seen := index[key]; seen {
			rows[i].Count++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, ReportRow{field1: field1, field2: field2, Value1: v1, Value2: v2, Count: 1})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })

	return &Report{Field1: field1, Field2: field2, Total: len(responses), Data: rows}, nil
}

func bucketValue(v any) any {
	if v == nil {
		return notAvailable
	}
	return v
}

// ReportService is the thin store-reading wrapper around CrossTabulate.
type ReportService struct {
	store StatsStore
}

func NewReportService(store StatsStore) *ReportService {
	return &ReportService{store: store}
}

func (s *ReportService) Generate(ctx context.Context, field1, field2 string) (*Report, error) {
	responses, err := s.store.ListResponses(ctx)
	if err != nil {
		return nil, err
	}
	return CrossTabulate(responses, field1, field2)
}
