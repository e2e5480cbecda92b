// Package db implements the SQLite persistence layer: the survey response
// table and the expiring key-value entries backing the rate limiter.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tlc-community/cu1-survey/internal/services"
)

type SQLiteStore struct {
	db *sql.DB
}

var (
	_ services.CounterStore  = (*SQLiteStore)(nil)
	_ services.ResponseStore = (*SQLiteStore)(nil)
	_ services.StatsStore    = (*SQLiteStore)(nil)
)

// Open opens (or creates) the database at path, applies pragmas, and runs
// migrations.
func Open(path string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	store, err := NewSQLiteStore(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := RunMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

func NewSQLiteStore(sqlDB *sql.DB) (*SQLiteStore, error) {
	if sqlDB == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// GetCounter returns the stored rate-limit entry, or nil when absent or
// already expired. Expired entries are deleted on read.
func (s *SQLiteStore) GetCounter(ctx context.Context, key string) ([]byte, error) {
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM rate_limits WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get counter: %w", err)
	}
	if expiresAt <= time.Now().Unix() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE key = ?`, key)
		return nil, nil
	}
	return []byte(value), nil
}

// PutCounter writes an entry with a store-level expiry of ttl.
func (s *SQLiteStore) PutCounter(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_limits (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at`,
		key, string(value), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("put counter: %w", err)
	}
	return nil
}

// SweepExpiredCounters deletes entries past their expiry; abandoned counters
// self-clean even if never read again.
func (s *SQLiteStore) SweepExpiredCounters(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM rate_limits WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sweep counters: %w", err)
	}
	return res.RowsAffected()
}

const responseColumns = `
	id, submitted_at, response_id,
	age, avg_fps_pre_cu1, avg_fps_post_cu1,
	overall_client_stability, overall_stability, pre_cu1_quests_rating,
	mother_rating, the_one_before_me_rating, the_warehouse_rating,
	whispers_within_rating, smile_at_dark_rating, story_engagement,
	overall_quest_story_rating, overall_quest_rating,
	overall_score_post_cu1, overall_score,
	cpu, gpu, ram, storage, playtime, discord_name,
	quest_progress, open_feedback_space, bug_other_text,
	pre_cu1_vs_post, performance_change, which_quest_poi,
	method_used_to_resolve_boat1, method_used_to_resolve_boat2,
	method_used_to_resolve_elevator, what_poi_elevator,
	common_bugs_experienced`

// AddResponse writes one accepted, sanitized row. One durable write or
// nothing; rows are never updated afterwards.
func (s *SQLiteStore) AddResponse(ctx context.Context, r *services.Response) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO survey_responses (`+responseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SubmittedAt, nullStr(r.ResponseID),
		nullInt(r.Age), nullInt(r.AvgFpsPreCu1), nullInt(r.AvgFpsPostCu1),
		nullInt(r.OverallClientStability), nullInt(r.OverallStability), nullInt(r.PreCu1QuestsRating),
		nullInt(r.MotherRating), nullInt(r.TheOneBeforeMeRating), nullInt(r.TheWarehouseRating),
		nullInt(r.WhispersWithinRating), nullInt(r.SmileAtDarkRating), nullInt(r.StoryEngagement),
		nullInt(r.OverallQuestStoryRating), nullInt(r.OverallQuestRating),
		nullInt(r.OverallScorePostCu1), nullInt(r.OverallScore),
		nullStr(r.Cpu), nullStr(r.Gpu), nullStr(r.Ram), nullStr(r.Storage),
		nullStr(r.Playtime), nullStr(r.DiscordName),
		nullStr(r.QuestProgress), nullStr(r.OpenFeedbackSpace), nullStr(r.BugOtherText),
		nullStr(r.PreCu1VsPost), nullStr(r.PerformanceChange), nullStr(r.WhichQuestPoi),
		nullStr(r.MethodUsedToResolveBoat1), nullStr(r.MethodUsedToResolveBoat2),
		nullStr(r.MethodUsedToResolveElevator), nullStr(r.WhatPoiElevator),
		nullStr(r.CommonBugsExperienced),
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// ListResponses returns every stored row in submission order.
func (s *SQLiteStore) ListResponses(ctx context.Context) ([]*services.Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+responseColumns+` FROM survey_responses ORDER BY submitted_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []*services.Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return out, nil
}

func scanResponse(rows *sql.Rows) (*services.Response, error) {
	var (
		r          services.Response
		responseID sql.NullString

		age, fpsPre, fpsPost                           sql.NullInt64
		clientStab, overallStab, preQuests             sql.NullInt64
		mother, oneBeforeMe, warehouse                 sql.NullInt64
		whispers, smileAtDark, storyEng                sql.NullInt64
		questStory, questOverall, scorePost, score     sql.NullInt64
		cpu, gpu, ram, storage, playtime, discord      sql.NullString
		questProgress, feedback, bugOther              sql.NullString
		preVsPost, perfChange, whichPoi                sql.NullString
		boat1, boat2, elevator, whatPoiElevator, bList sql.NullString
	)
	if err := rows.Scan(
		&r.ID, &r.SubmittedAt, &responseID,
		&age, &fpsPre, &fpsPost,
		&clientStab, &overallStab, &preQuests,
		&mother, &oneBeforeMe, &warehouse,
		&whispers, &smileAtDark, &storyEng,
		&questStory, &questOverall, &scorePost, &score,
		&cpu, &gpu, &ram, &storage, &playtime, &discord,
		&questProgress, &feedback, &bugOther,
		&preVsPost, &perfChange, &whichPoi,
		&boat1, &boat2, &elevator, &whatPoiElevator, &bList,
	); err != nil {
		return nil, fmt.Errorf("scan response: %w", err)
	}

	r.ResponseID = strPtr(responseID)
	r.Age, r.AvgFpsPreCu1, r.AvgFpsPostCu1 = intPtr(age), intPtr(fpsPre), intPtr(fpsPost)
	r.OverallClientStability, r.OverallStability = intPtr(clientStab), intPtr(overallStab)
	r.PreCu1QuestsRating, r.MotherRating = intPtr(preQuests), intPtr(mother)
	r.TheOneBeforeMeRating, r.TheWarehouseRating = intPtr(oneBeforeMe), intPtr(warehouse)
	r.WhispersWithinRating, r.SmileAtDarkRating = intPtr(whispers), intPtr(smileAtDark)
	r.StoryEngagement, r.OverallQuestStoryRating = intPtr(storyEng), intPtr(questStory)
	r.OverallQuestRating = intPtr(questOverall)
	r.OverallScorePostCu1, r.OverallScore = intPtr(scorePost), intPtr(score)
	r.Cpu, r.Gpu, r.Ram, r.Storage = strPtr(cpu), strPtr(gpu), strPtr(ram), strPtr(storage)
	r.Playtime, r.DiscordName = strPtr(playtime), strPtr(discord)
	r.QuestProgress, r.OpenFeedbackSpace, r.BugOtherText = strPtr(questProgress), strPtr(feedback), strPtr(bugOther)
	r.PreCu1VsPost, r.PerformanceChange, r.WhichQuestPoi = strPtr(preVsPost), strPtr(perfChange), strPtr(whichPoi)
	r.MethodUsedToResolveBoat1, r.MethodUsedToResolveBoat2 = strPtr(boat1), strPtr(boat2)
	r.MethodUsedToResolveElevator, r.WhatPoiElevator = strPtr(elevator), strPtr(whatPoiElevator)
	r.CommonBugsExperienced = strPtr(bList)
	return &r, nil
}

func nullStr(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}
