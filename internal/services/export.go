package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"
)

// exportColumns fixes the CSV column order. It mirrors the storage layout so
// an export lines up with the table it came from.
var exportColumns = []string{
	"id", "submitted_at", "response_id",
	"age", "avg_fps_pre_cu1", "avg_fps_post_cu1",
	"overall_client_stability", "overall_stability",
	"pre_cu1_quests_rating", "mother_rating", "the_one_before_me_rating",
	"the_warehouse_rating", "whispers_within_rating", "smile_at_dark_rating",
	"story_engagement", "overall_quest_story_rating", "overall_quest_rating",
	"overall_score_post_cu1", "overall_score",
	"cpu", "gpu", "ram", "storage", "playtime",
	"discord_name", "quest_progress", "open_feedback_space", "bug_other_text",
	"pre_cu1_vs_post", "performance_change", "which_quest_poi",
	"method_used_to_resolve_boat1", "method_used_to_resolve_boat2",
	"method_used_to_resolve_elevator", "what_poi_elevator",
	"common_bugs_experienced",
}

// ExportResponsesCSV renders the full response set as CSV, one row per
// response, null fields as empty cells.
func ExportResponsesCSV(responses []*Response) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}
	for _, r := range responses {
		if err := w.Write(exportRow(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportRow(r *Response) []string {
	cellInt := func(v *int) string {
		if v == nil {
			return ""
		}
		return strconv.Itoa(*v)
	}
	cellStr := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	return []string{
		r.ID, r.SubmittedAt.UTC().Format(time.RFC3339), cellStr(r.ResponseID),
		cellInt(r.Age), cellInt(r.AvgFpsPreCu1), cellInt(r.AvgFpsPostCu1),
		cellInt(r.OverallClientStability), cellInt(r.OverallStability),
		cellInt(r.PreCu1QuestsRating), cellInt(r.MotherRating), cellInt(r.TheOneBeforeMeRating),
		cellInt(r.TheWarehouseRating), cellInt(r.WhispersWithinRating), cellInt(r.SmileAtDarkRating),
		cellInt(r.StoryEngagement), cellInt(r.OverallQuestStoryRating), cellInt(r.OverallQuestRating),
		cellInt(r.OverallScorePostCu1), cellInt(r.OverallScore),
		cellStr(r.Cpu), cellStr(r.Gpu), cellStr(r.Ram), cellStr(r.Storage), cellStr(r.Playtime),
		cellStr(r.DiscordName), cellStr(r.QuestProgress), cellStr(r.OpenFeedbackSpace), cellStr(r.BugOtherText),
		cellStr(r.PreCu1VsPost), cellStr(r.PerformanceChange), cellStr(r.WhichQuestPoi),
		cellStr(r.MethodUsedToResolveBoat1), cellStr(r.MethodUsedToResolveBoat2),
		cellStr(r.MethodUsedToResolveElevator), cellStr(r.WhatPoiElevator),
		cellStr(r.CommonBugsExperienced),
	}
}

// ExportService reads the stored response set and renders it for download.
type ExportService struct {
	store StatsStore
}

func NewExportService(store StatsStore) *ExportService {
	return &ExportService{store: store}
}

func (s *ExportService) ResponsesCSV(ctx context.Context) ([]byte, error) {
	responses, err := s.store.ListResponses(ctx)
	if err != nil {
		return nil, err
	}
	return ExportResponsesCSV(responses)
}
