package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResponseStore abstracts persistence of accepted survey rows.
type ResponseStore interface {
	AddResponse(ctx context.Context, r *Response) error
}

// Reject reasons surfaced to the submission endpoint.
const (
	RejectRateLimited = "rate limited"
	RejectInvalid     = "invalid"
)

// IngestResult is the structured outcome of one submission attempt.
type IngestResult struct {
	Accepted           bool
	Record             *Response
	RejectReason       string
	ValidationErrors   []string
	SanitizationIssues []string
	Remaining          int
	ResetAt            time.Time
}

// IngestionPipeline composes rate limiting, validation, and sanitization
// into the single entry point behind the submission endpoint.
type IngestionPipeline struct {
	limiter   *RateLimiter
	validator *Validator
	sanitizer *Sanitizer
	store     ResponseStore

	now         func() time.Time
	idGenerator func() string
}

func NewIngestionPipeline(limiter *RateLimiter, validator *Validator, sanitizer *Sanitizer, store ResponseStore) *IngestionPipeline {
	return &IngestionPipeline{
		limiter:     limiter,
		validator:   validator,
		sanitizer:   sanitizer,
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: defaultRecordID,
	}
}

func defaultRecordID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Ingest processes one raw submission. Rate-limit and validation rejections
// short-circuit; sanitization issues are attached to the result but never by
// themselves cause rejection. A non-nil error means the persistence store
// failed and nothing was written.
func (p *IngestionPipeline) Ingest(ctx context.Context, sub *Submission, clientID string) (*IngestResult, error) {
	decision := p.limiter.Check(ctx, clientID)
	if !decision.Allowed {
		return &IngestResult{
			Accepted:     false,
			RejectReason: RejectRateLimited,
			Remaining:    0,
			ResetAt:      decision.ResetAt,
		}, nil
	}

	vr := p.validator.Validate(sub)
	if !vr.Valid {
		return &IngestResult{
			Accepted:         false,
			RejectReason:     RejectInvalid,
			ValidationErrors: vr.Errors,
			Remaining:        decision.Remaining,
			ResetAt:          decision.ResetAt,
		}, nil
	}

	sr := p.sanitizer.Sanitize(sub)
	record := buildRecord(sr.Sanitized)
	record.ID = p.idGenerator()
	record.SubmittedAt = p.now()

	if err := p.store.AddResponse(ctx, record); err != nil {
		return nil, err
	}

	return &IngestResult{
		Accepted:           true,
		Record:             record,
		SanitizationIssues: sr.Issues,
		Remaining:          decision.Remaining,
		ResetAt:            decision.ResetAt,
	}, nil
}

// buildRecord converts a sanitized submission into a storable row. Numeric
// fields that were absent or unparsable become nulls; by this point the
// validator has already rejected out-of-range values.
func buildRecord(sub *Submission) *Response {
	return &Response{
		ResponseID: sub.ResponseID,

		Age:           sub.Age.Ptr(),
		AvgFpsPreCu1:  sub.AvgFpsPreCu1.Ptr(),
		AvgFpsPostCu1: sub.AvgFpsPostCu1.Ptr(),

		OverallClientStability:  sub.OverallClientStability.Ptr(),
		OverallStability:        sub.OverallStability.Ptr(),
		PreCu1QuestsRating:      sub.PreCu1QuestsRating.Ptr(),
		MotherRating:            sub.MotherRating.Ptr(),
		TheOneBeforeMeRating:    sub.TheOneBeforeMeRating.Ptr(),
		TheWarehouseRating:      sub.TheWarehouseRating.Ptr(),
		WhispersWithinRating:    sub.WhispersWithinRating.Ptr(),
		SmileAtDarkRating:       sub.SmileAtDarkRating.Ptr(),
		StoryEngagement:         sub.StoryEngagement.Ptr(),
		OverallQuestStoryRating: sub.OverallQuestStoryRating.Ptr(),
		OverallQuestRating:      sub.OverallQuestRating.Ptr(),
		OverallScorePostCu1:     sub.OverallScorePostCu1.Ptr(),
		OverallScore:            sub.OverallScore.Ptr(),

		Cpu:               sub.Cpu,
		Gpu:               sub.Gpu,
		Ram:               sub.Ram,
		Storage:           sub.Storage,
		Playtime:          sub.Playtime,
		DiscordName:       sub.DiscordName,
		QuestProgress:     sub.QuestProgress,
		OpenFeedbackSpace: sub.OpenFeedbackSpace,
		BugOtherText:      sub.BugOtherText,

		PreCu1VsPost:                sub.PreCu1VsPost,
		PerformanceChange:           sub.PerformanceChange,
		WhichQuestPoi:               sub.WhichQuestPoi,
		MethodUsedToResolveBoat1:    sub.MethodUsedToResolveBoat1,
		MethodUsedToResolveBoat2:    sub.MethodUsedToResolveBoat2,
		MethodUsedToResolveElevator: sub.MethodUsedToResolveElevator,
		WhatPoiElevator:             sub.WhatPoiElevator,

		CommonBugsExperienced: sub.CommonBugsExperienced,
	}
}
