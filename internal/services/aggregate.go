package services

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// StatsStore is the read side shared by the aggregation and report engines.
type StatsStore interface {
	ListResponses(ctx context.Context) ([]*Response, error)
}

// PerformanceBucket is one slice of the pre-vs-post performance distribution.
type PerformanceBucket struct {
	Answer string `json:"answer"`
	Count  int    `json:"count"`
}

// HardwareCount is one ranked free-text hardware value.
type HardwareCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type HardwareStats struct {
	TopCPUs     []HardwareCount `json:"topCpus"`
	TopGPUs     []HardwareCount `json:"topGpus"`
	AvgPlaytime *float64        `json:"avgPlaytime"`
}

// AggregateStats is the dashboard payload, recomputed on demand from the
// full response set. Averages are nil when no row contributed a value.
type AggregateStats struct {
	TotalResponses        int                 `json:"totalResponses"`
	AvgFpsPre             *float64            `json:"avgFpsPre"`
	AvgFpsPost            *float64            `json:"avgFpsPost"`
	AvgStability          *float64            `json:"avgStability"`
	AvgOverallScore       *float64            `json:"avgOverallScore"`
	PerformanceComparison []PerformanceBucket `json:"performanceComparison"`
	BugStats              map[string]int      `json:"bugStats"`
	QuestRatings          map[string]float64  `json:"questRatings"`
	HardwareStats         HardwareStats       `json:"hardwareStats"`
}

// UserDashboard pairs population stats with one respondent's own row. User
// is nil when the respondent never submitted; comparison features degrade to
// population-only stats.
type UserDashboard struct {
	Overall *AggregateStats `json:"overall"`
	User    *Response       `json:"user"`
}

// AggregationService reads the stored response set and computes dashboard
// statistics. It is pure and read-only, safe for concurrent callers.
type AggregationService struct {
	store StatsStore
}

func NewAggregationService(store StatsStore) *AggregationService {
	return &AggregationService{store: store}
}

func (s *AggregationService) Overall(ctx context.Context) (*AggregateStats, error) {
	responses, err := s.store.ListResponses(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeOverall(responses), nil
}

func (s *AggregationService) ForUser(ctx context.Context, discordName string) (*UserDashboard, error) {
	responses, err := s.store.ListResponses(ctx)
	if err != nil {
		return nil, err
	}
	return &UserDashboard{
		Overall: ComputeOverall(responses),
		User:    latestByDiscordName(responses, discordName),
	}, nil
}

var questLabels = []struct {
	label string
	value func(*Response) *int
}{
	{"Pre-CU1 Quests", func(r *Response) *int { return r.PreCu1QuestsRating }},
	{"Mother", func(r *Response) *int { return r.MotherRating }},
	{"The One Before Me", func(r *Response) *int { return r.TheOneBeforeMeRating }},
	{"The Warehouse", func(r *Response) *int { return r.TheWarehouseRating }},
	{"Whispers Within", func(r *Response) *int { return r.WhispersWithinRating }},
	{"Smile at Dark", func(r *Response) *int { return r.SmileAtDarkRating }},
	{"Story Engagement", func(r *Response) *int { return r.StoryEngagement }},
	{"Quest Story Overall", func(r *Response) *int { return r.OverallQuestStoryRating }},
	{"Quests Overall", func(r *Response) *int { return r.OverallQuestRating }},
}

// ComputeOverall derives the full dashboard statistics. An empty response
// set yields zero counts and nil averages, never a division fault.
func ComputeOverall(responses []*Response) *AggregateStats {
	stats := &AggregateStats{
		TotalResponses: len(responses),
		AvgFpsPre:      meanInt(responses, func(r *Response) *int { return r.AvgFpsPreCu1 }),
		AvgFpsPost:     meanInt(responses, func(r *Response) *int { return r.AvgFpsPostCu1 }),
		AvgStability:   meanInt(responses, func(r *Response) *int { return r.OverallClientStability }),
		AvgOverallScore: meanInt(responses, func(r *Response) *int {
			return r.OverallScorePostCu1
		}),
		PerformanceComparison: performanceDistribution(responses),
		BugStats:              bugFrequency(responses),
		QuestRatings:          map[string]float64{},
	}

	for _, q := range questLabels {
		if avg := meanInt(responses, q.value); avg != nil {
			stats.QuestRatings[q.label] = *avg
		}
	}

	stats.HardwareStats = HardwareStats{
		TopCPUs:     topValues(responses, func(r *Response) *string { return r.Cpu }, 5),
		TopGPUs:     topValues(responses, func(r *Response) *string { return r.Gpu }, 5),
		AvgPlaytime: meanPlaytime(responses),
	}

	return stats
}

// meanInt averages a field over rows where it is non-null; the divisor is
// the count of contributing rows. Returns nil when nothing contributed.
func meanInt(responses []*Response, value func(*Response) *int) *float64 {
	sum, n := 0, 0
	for _, r := range responses {
		if v := value(r); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := round1(float64(sum) / float64(n))
	return &avg
}

func performanceDistribution(responses []*Response) []PerformanceBucket {
	counts := map[string]int{}
	var order []string
	for _, r := range responses {
		if r.PreCu1VsPost == nil {
			continue
		}
		if _, seen := counts[*r.PreCu1VsPost]; !seen {
			order = append(order, *r.PreCu1VsPost)
		}
		counts[*r.PreCu1VsPost]++
	}
	out := make([]PerformanceBucket, 0, len(order))
	for _, answer := range order {
		out = append(out, PerformanceBucket{Answer: answer, Count: counts[answer]})
	}
	return out
}

// bugFrequency parses each row's bug list and counts occurrences per bug
// name. Rows whose list does not parse are skipped, not fatal.
func bugFrequency(responses []*Response) map[string]int {
	out := map[string]int{}
	for _, r := range responses {
		if r.CommonBugsExperienced == nil {
			continue
		}
		var bugs []any
		if err := json.Unmarshal([]byte(*r.CommonBugsExperienced), &bugs); err != nil {
			log.Debug().Str("response_id", r.ID).Msg("aggregation: skipping unparsable bug list")
			continue
		}
		for _, b := range bugs {
			out[elementString(b)]++
		}
	}
	return out
}

// topValues ranks distinct free-text values by descending count, ties broken
// by first-seen order, and truncates to n. The full ranking is computed
// before truncation.
func topValues(responses []*Response, value func(*Response) *string, n int) []HardwareCount {
	counts := map[string]int{}
	var order []string
	for _, r := range responses {
		v := value(r)
		if v == nil || *v == "" {
			continue
		}
		if _, seen := counts[*v]; !seen {
			order = append(order, *v)
		}
		counts[*v]++
	}
	ranked := make([]HardwareCount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, HardwareCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

var leadingNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// meanPlaytime averages the numeric portion of the free-text playtime field
// ("200 hours", "~1.5k" both contribute their leading number).
func meanPlaytime(responses []*Response) *float64 {
	sum, n := 0.0, 0
	for _, r := range responses {
		if r.Playtime == nil {
			continue
		}
		match := leadingNumber.FindString(*r.Playtime)
		if match == "" {
			continue
		}
		v, err := strconv.ParseFloat(match, 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return nil
	}
	avg := round1(sum / float64(n))
	return &avg
}

func latestByDiscordName(responses []*Response, name string) *Response {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	var latest *Response
	for _, r := range responses {
		if r.DiscordName == nil || !strings.EqualFold(*r.DiscordName, name) {
			continue
		}
		if latest == nil || r.SubmittedAt.After(latest.SubmittedAt) {
			latest = r
		}
	}
	return latest
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
