package services

import (
	"strconv"
	"strings"
	"time"
)

// OptInt is an optional integer decoded leniently from JSON. Clients send
// numeric answers both as numbers and as quoted strings, so both are
// accepted; a value that is present but not numeric is remembered as such
// instead of failing the whole decode, and is reported by the validator.
type OptInt struct {
	present bool
	ok      bool
	value   int
}

// Int builds a present, parsed OptInt. Mostly useful in tests.
func Int(v int) OptInt { return OptInt{present: true, ok: true, value: v} }

func (o *OptInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	o.present = true
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if n, err := strconv.Atoi(s); err == nil {
		o.ok = true
		o.value = n
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		o.ok = true
		o.value = int(f)
	}
	return nil
}

func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.present || !o.ok {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.value)), nil
}

// Present reports whether the field appeared in the payload at all.
func (o OptInt) Present() bool { return o.present }

// Value returns the parsed integer and whether parsing succeeded.
func (o OptInt) Value() (int, bool) { return o.value, o.ok }

// Ptr returns the parsed value as a pointer, or nil when absent or unparsable.
func (o OptInt) Ptr() *int {
	if !o.present || !o.ok {
		return nil
	}
	v := o.value
	return &v
}

// Submission is the inbound survey payload as sent by the form, prior to
// validation and sanitization. All fields are optional.
type Submission struct {
	ResponseID *string `json:"responseId"`

	Age           OptInt `json:"age"`
	AvgFpsPreCu1  OptInt `json:"avgFpsPreCu1"`
	AvgFpsPostCu1 OptInt `json:"avgFpsPostCu1"`

	OverallClientStability  OptInt `json:"overallClientStability"`
	OverallStability        OptInt `json:"overallStability"`
	PreCu1QuestsRating      OptInt `json:"preCu1QuestsRating"`
	MotherRating            OptInt `json:"motherRating"`
	TheOneBeforeMeRating    OptInt `json:"theOneBeforeMeRating"`
	TheWarehouseRating      OptInt `json:"theWarehouseRating"`
	WhispersWithinRating    OptInt `json:"whispersWithinRating"`
	SmileAtDarkRating       OptInt `json:"smileAtDarkRating"`
	StoryEngagement         OptInt `json:"storyEngagement"`
	OverallQuestStoryRating OptInt `json:"overallQuestStoryRating"`
	OverallQuestRating      OptInt `json:"overallQuestRating"`
	OverallScorePostCu1     OptInt `json:"overallScorePostCu1"`
	OverallScore            OptInt `json:"overallScore"`

	Cpu               *string `json:"cpu"`
	Gpu               *string `json:"gpu"`
	Ram               *string `json:"ram"`
	Storage           *string `json:"storage"`
	Playtime          *string `json:"playtime"`
	DiscordName       *string `json:"discordName"`
	QuestProgress     *string `json:"questProgress"`
	OpenFeedbackSpace *string `json:"openFeedbackSpace"`
	BugOtherText      *string `json:"bugOtherText"`

	PreCu1VsPost                *string `json:"preCu1VsPost"`
	PerformanceChange           *string `json:"performanceChange"`
	WhichQuestPoi               *string `json:"whichQuestPoi"`
	MethodUsedToResolveBoat1    *string `json:"methodUsedToResolveBoat1"`
	MethodUsedToResolveBoat2    *string `json:"methodUsedToResolveBoat2"`
	MethodUsedToResolveElevator *string `json:"methodUsedToResolveElevator"`
	WhatPoiElevator             *string `json:"whatPoiElevator"`

	// JSON-encoded array of bug names selected in the form.
	CommonBugsExperienced *string `json:"commonBugsExperienced"`
}

// Response is one accepted, sanitized survey row. Rows are immutable once
// written; a resubmission creates a new row.
type Response struct {
	ID          string    `json:"id"`
	SubmittedAt time.Time `json:"submitted_at"`

	ResponseID *string `json:"response_id,omitempty"`

	Age           *int `json:"age,omitempty"`
	AvgFpsPreCu1  *int `json:"avg_fps_pre_cu1,omitempty"`
	AvgFpsPostCu1 *int `json:"avg_fps_post_cu1,omitempty"`

	OverallClientStability  *int `json:"overall_client_stability,omitempty"`
	OverallStability        *int `json:"overall_stability,omitempty"`
	PreCu1QuestsRating      *int `json:"pre_cu1_quests_rating,omitempty"`
	MotherRating            *int `json:"mother_rating,omitempty"`
	TheOneBeforeMeRating    *int `json:"the_one_before_me_rating,omitempty"`
	TheWarehouseRating      *int `json:"the_warehouse_rating,omitempty"`
	WhispersWithinRating    *int `json:"whispers_within_rating,omitempty"`
	SmileAtDarkRating       *int `json:"smile_at_dark_rating,omitempty"`
	StoryEngagement         *int `json:"story_engagement,omitempty"`
	OverallQuestStoryRating *int `json:"overall_quest_story_rating,omitempty"`
	OverallQuestRating      *int `json:"overall_quest_rating,omitempty"`
	OverallScorePostCu1     *int `json:"overall_score_post_cu1,omitempty"`
	OverallScore            *int `json:"overall_score,omitempty"`

	Cpu               *string `json:"cpu,omitempty"`
	Gpu               *string `json:"gpu,omitempty"`
	Ram               *string `json:"ram,omitempty"`
	Storage           *string `json:"storage,omitempty"`
	Playtime          *string `json:"playtime,omitempty"`
	DiscordName       *string `json:"discord_name,omitempty"`
	QuestProgress     *string `json:"quest_progress,omitempty"`
	OpenFeedbackSpace *string `json:"open_feedback_space,omitempty"`
	BugOtherText      *string `json:"bug_other_text,omitempty"`

	PreCu1VsPost                *string `json:"pre_cu1_vs_post,omitempty"`
	PerformanceChange           *string `json:"performance_change,omitempty"`
	WhichQuestPoi               *string `json:"which_quest_poi,omitempty"`
	MethodUsedToResolveBoat1    *string `json:"method_used_to_resolve_boat1,omitempty"`
	MethodUsedToResolveBoat2    *string `json:"method_used_to_resolve_boat2,omitempty"`
	MethodUsedToResolveElevator *string `json:"method_used_to_resolve_elevator,omitempty"`
	WhatPoiElevator             *string `json:"what_poi_elevator,omitempty"`

	CommonBugsExperienced *string `json:"common_bugs_experienced,omitempty"`
}
