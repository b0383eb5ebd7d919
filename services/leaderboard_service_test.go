package services

import (
	"testing"
	"time"

	"game-progression-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addNormalScore(t *testing.T, svc *LeaderboardService, profileID string, score int64, createdAt time.Time) {
	t.Helper()
	require.NoError(t, svc.DB.Create(&models.NormalScore{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		SessionID: uuid.NewString(),
		Score:     score,
		CreatedAt: createdAt,
	}).Error)
}

func addLeaderboardScore(t *testing.T, svc *LeaderboardService, profileID string, total float64, createdAt time.Time) {
	t.Helper()
	require.NoError(t, svc.DB.Create(&models.LeaderboardScore{
		ID:                     uuid.NewString(),
		ProfileID:              profileID,
		SessionID:              uuid.NewString(),
		TotalAccumulatedPoints: total,
		CreatedAt:              createdAt,
	}).Error)
}

func TestRankScoreBoardOrdering(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	now := time.Now()

	a := createTestProfile(t, db, "first")
	b := createTestProfile(t, db, "second")
	c := createTestProfile(t, db, "third")

	addNormalScore(t, svc, a.ID, 300, now)
	addNormalScore(t, svc, b.ID, 500, now)
	addNormalScore(t, svc, c.ID, 100, now)

	entries, err := svc.Rank(BoardScore, 10, TimeframeAll)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "second", entries[0].Username)
	assert.Equal(t, "first", entries[1].Username)
	assert.Equal(t, "third", entries[2].Username)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestRankScoreBoardTiebreak(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	now := time.Now()

	late := createTestProfile(t, db, "late")
	early := createTestProfile(t, db, "early")

	// Equal scores: the earlier record wins the higher rank.
	addNormalScore(t, svc, late.ID, 400, now)
	addNormalScore(t, svc, early.ID, 400, now.Add(-time.Hour))

	entries, err := svc.Rank(BoardScore, 10, TimeframeAll)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "early", entries[0].Username)
	assert.Equal(t, "late", entries[1].Username)
}

func TestRankScoreBoardLimit(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	now := time.Now()

	for i := 0; i < 5; i++ {
		p := createTestProfile(t, db, "bulk")
		addNormalScore(t, svc, p.ID, int64(100+i), now)
	}

	entries, err := svc.Rank(BoardScore, 3, TimeframeAll)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRankScoreBoardTimeframe(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	now := time.Now()

	fresh := createTestProfile(t, db, "fresh")
	stale := createTestProfile(t, db, "stale")

	addNormalScore(t, svc, fresh.ID, 100, now.Add(-time.Hour))
	// Higher score, but outside the 24h rolling window.
	addNormalScore(t, svc, stale.ID, 9000, now.Add(-48*time.Hour))

	entries, err := svc.Rank(BoardScore, 10, TimeframeDaily)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].Username)

	entries, err = svc.Rank(BoardScore, 10, TimeframeAll)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRankPointsBoardGroupsByProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	now := time.Now()

	grinder := createTestProfile(t, db, "grinder")
	casual := createTestProfile(t, db, "casual")

	// One profile, many sessions: only the latest running total counts.
	addLeaderboardScore(t, svc, grinder.ID, 50, now.Add(-2*time.Hour))
	addLeaderboardScore(t, svc, grinder.ID, 120, now.Add(-time.Hour))
	addLeaderboardScore(t, svc, casual.ID, 80, now)

	entries, err := svc.Rank(BoardLeaderboardPoints, 10, TimeframeAll)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "grinder", entries[0].Username)
	assert.Equal(t, 120.0, entries[0].Value)
	assert.Equal(t, "casual", entries[1].Username)
	assert.Equal(t, 80.0, entries[1].Value)
}

func TestRankSurvivalBoardIgnoresTimeframe(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	tough := createTestProfile(t, db, "tough")
	soft := createTestProfile(t, db, "soft")
	require.NoError(t, db.Model(&models.Profile{}).Where("id = ?", tough.ID).
		Update("longest_survival_time", 600.0).Error)
	require.NoError(t, db.Model(&models.Profile{}).Where("id = ?", soft.ID).
		Update("longest_survival_time", 45.0).Error)

	for _, tf := range []string{TimeframeAll, TimeframeDaily} {
		entries, err := svc.Rank(BoardSurvival, 10, tf)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "tough", entries[0].Username)
		assert.Equal(t, 600.0, entries[0].Value)
	}
}

func TestRankExcludesInactiveProfiles(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	now := time.Now()

	active := createTestProfile(t, db, "active")
	banned := createTestProfile(t, db, "banned")
	require.NoError(t, db.Model(&models.Profile{}).Where("id = ?", banned.ID).
		Update("is_active", false).Error)

	addNormalScore(t, svc, active.ID, 100, now)
	addNormalScore(t, svc, banned.ID, 9000, now)

	entries, err := svc.Rank(BoardScore, 10, TimeframeAll)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "active", entries[0].Username)
}

func TestNormalizeBoardAliases(t *testing.T) {
	cases := map[string]string{
		"":                   BoardScore,
		"normal":             BoardScore,
		"score":              BoardScore,
		"leaderboard":        BoardLeaderboardPoints,
		"leaderboard_points": BoardLeaderboardPoints,
		"skill":              BoardSkillPoints,
		"skill_points":       BoardSkillPoints,
		"survival":           BoardSurvival,
	}
	for in, want := range cases {
		got, err := NormalizeBoard(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := NormalizeBoard("bogus")
	assert.Error(t, err)
}

func TestRankInvalidTimeframe(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	_, err := svc.Rank(BoardScore, 10, "fortnightly")
	assert.Error(t, err)
}

func TestRecentScoresNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	now := time.Now()

	p1 := createTestProfile(t, db, "older")
	p2 := createTestProfile(t, db, "newer")
	addNormalScore(t, svc, p1.ID, 100, now.Add(-time.Hour))
	addNormalScore(t, svc, p2.ID, 50, now)

	scores, err := svc.RecentScores(10)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "newer", scores[0].Username)
	assert.Equal(t, "older", scores[1].Username)

	scores, err = svc.RecentScores(1)
	require.NoError(t, err)
	assert.Len(t, scores, 1)
}
