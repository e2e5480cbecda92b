package services

// The submission schema is declared as data so the validator and sanitizer
// iterate rules instead of hard-coding field names in each pass.

type numericRule struct {
	name     string
	min, max int
	message  string
	value    func(*Submission) OptInt
}

type textRule struct {
	name string
	// maxLen 0 means the field is not length-validated (sanitize only).
	maxLen int
	value  func(*Submission) *string
	assign func(*Submission, *string)
}

const (
	maxTextFieldLength = 500
	ratingMin          = 1
	ratingMax          = 5
)

var numericRules = []numericRule{
	{name: "age", min: 16, max: 120, message: "age must be between 16 and 120",
		value: func(s *Submission) OptInt { return s.Age }},
	{name: "avgFpsPreCu1", min: 0, max: 1000, message: "invalid FPS value (pre-CU1)",
		value: func(s *Submission) OptInt { return s.AvgFpsPreCu1 }},
	{name: "avgFpsPostCu1", min: 0, max: 1000, message: "invalid FPS value (post-CU1)",
		value: func(s *Submission) OptInt { return s.AvgFpsPostCu1 }},
}

// The 1-5 rating questions share bounds and an error message template.
var ratingRules = []numericRule{
	{name: "overallClientStability", value: func(s *Submission) OptInt { return s.OverallClientStability }},
	{name: "overallStability", value: func(s *Submission) OptInt { return s.OverallStability }},
	{name: "preCu1QuestsRating", value: func(s *Submission) OptInt { return s.PreCu1QuestsRating }},
	{name: "motherRating", value: func(s *Submission) OptInt { return s.MotherRating }},
	{name: "theOneBeforeMeRating", value: func(s *Submission) OptInt { return s.TheOneBeforeMeRating }},
	{name: "theWarehouseRating", value: func(s *Submission) OptInt { return s.TheWarehouseRating }},
	{name: "whispersWithinRating", value: func(s *Submission) OptInt { return s.WhispersWithinRating }},
	{name: "smileAtDarkRating", value: func(s *Submission) OptInt { return s.SmileAtDarkRating }},
	{name: "storyEngagement", value: func(s *Submission) OptInt { return s.StoryEngagement }},
	{name: "overallQuestStoryRating", value: func(s *Submission) OptInt { return s.OverallQuestStoryRating }},
	{name: "overallQuestRating", value: func(s *Submission) OptInt { return s.OverallQuestRating }},
	{name: "overallScorePostCu1", value: func(s *Submission) OptInt { return s.OverallScorePostCu1 }},
	{name: "overallScore", value: func(s *Submission) OptInt { return s.OverallScore }},
}

var textRules = []textRule{
	{name: "cpu", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.Cpu },
		assign: func(s *Submission, v *string) { s.Cpu = v }},
	{name: "gpu", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.Gpu },
		assign: func(s *Submission, v *string) { s.Gpu = v }},
	{name: "ram", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.Ram },
		assign: func(s *Submission, v *string) { s.Ram = v }},
	{name: "storage", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.Storage },
		assign: func(s *Submission, v *string) { s.Storage = v }},
	{name: "playtime", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.Playtime },
		assign: func(s *Submission, v *string) { s.Playtime = v }},
	{name: "discordName", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.DiscordName },
		assign: func(s *Submission, v *string) { s.DiscordName = v }},
	{name: "questProgress", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.QuestProgress },
		assign: func(s *Submission, v *string) { s.QuestProgress = v }},
	{name: "openFeedbackSpace", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.OpenFeedbackSpace },
		assign: func(s *Submission, v *string) { s.OpenFeedbackSpace = v }},
	{name: "bugOtherText", maxLen: maxTextFieldLength,
		value:  func(s *Submission) *string { return s.BugOtherText },
		assign: func(s *Submission, v *string) { s.BugOtherText = v }},
	{name: "preCu1VsPost",
		value:  func(s *Submission) *string { return s.PreCu1VsPost },
		assign: func(s *Submission, v *string) { s.PreCu1VsPost = v }},
	{name: "performanceChange",
		value:  func(s *Submission) *string { return s.PerformanceChange },
		assign: func(s *Submission, v *string) { s.PerformanceChange = v }},
	{name: "whichQuestPoi",
		value:  func(s *Submission) *string { return s.WhichQuestPoi },
		assign: func(s *Submission, v *string) { s.WhichQuestPoi = v }},
	{name: "methodUsedToResolveBoat1",
		value:  func(s *Submission) *string { return s.MethodUsedToResolveBoat1 },
		assign: func(s *Submission, v *string) { s.MethodUsedToResolveBoat1 = v }},
	{name: "methodUsedToResolveBoat2",
		value:  func(s *Submission) *string { return s.MethodUsedToResolveBoat2 },
		assign: func(s *Submission, v *string) { s.MethodUsedToResolveBoat2 = v }},
	{name: "methodUsedToResolveElevator",
		value:  func(s *Submission) *string { return s.MethodUsedToResolveElevator },
		assign: func(s *Submission, v *string) { s.MethodUsedToResolveElevator = v }},
	{name: "whatPoiElevator",
		value:  func(s *Submission) *string { return s.WhatPoiElevator },
		assign: func(s *Submission, v *string) { s.WhatPoiElevator = v }},
}
