package services

import (
	"context"
	"testing"

	"game-progression-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionService(t *testing.T) (*SessionService, *models.Profile) {
	t.Helper()
	db := newTestDB(t)
	svc := NewSessionService(db, NewScoreService(db))
	return svc, createTestProfile(t, db, "player")
}

func TestStartSessionUnknownProfile(t *testing.T) {
	svc, _ := newSessionService(t)

	_, err := svc.StartSession(uuid.NewString(), "normal")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestStartSessionDefaults(t *testing.T) {
	svc, prof := newSessionService(t)

	result, err := svc.StartSession(prof.ID, "")
	require.NoError(t, err)
	assert.Equal(t, prof.ID, result.ProfileID)

	var session models.GameSession
	require.NoError(t, svc.DB.First(&session, "id = ?", result.SessionID).Error)
	assert.Equal(t, models.SessionInProgress, session.Status)
	assert.Equal(t, "normal", session.GameMode)
	assert.Equal(t, int64(0), session.Score)
	assert.Equal(t, 1, session.WaveReached)
	assert.Nil(t, session.EndedAt)
}

func TestSaveProgressOverwritesAndSnapshots(t *testing.T) {
	svc, prof := newSessionService(t)

	started, err := svc.StartSession(prof.ID, "normal")
	require.NoError(t, err)

	_, err = svc.SaveProgress(started.SessionID, ProgressUpdate{Score: 100, SurvivalTime: 30, Kills: 4, WaveReached: 2})
	require.NoError(t, err)
	// Each report is a full overwrite, never an accumulation.
	_, err = svc.SaveProgress(started.SessionID, ProgressUpdate{Score: 250, SurvivalTime: 62, Kills: 9, WaveReached: 3})
	require.NoError(t, err)

	var session models.GameSession
	require.NoError(t, svc.DB.First(&session, "id = ?", started.SessionID).Error)
	assert.Equal(t, int64(250), session.Score)
	assert.Equal(t, 62.0, session.SurvivalTime)
	assert.Equal(t, int64(9), session.Kills)
	assert.Equal(t, 3, session.WaveReached)

	var snapshots int64
	require.NoError(t, svc.DB.Model(&models.GameProgressSnapshot{}).
		Where("session_id = ?", started.SessionID).Count(&snapshots).Error)
	assert.Equal(t, int64(2), snapshots)
}

func TestSaveProgressUnknownSession(t *testing.T) {
	svc, _ := newSessionService(t)

	_, err := svc.SaveProgress(uuid.NewString(), ProgressUpdate{Score: 1})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEndSessionHappyPath(t *testing.T) {
	svc, prof := newSessionService(t)
	ctx := context.Background()

	started, err := svc.StartSession(prof.ID, "normal")
	require.NoError(t, err)

	result, err := svc.EndSession(ctx, started.SessionID, EndSessionInput{
		FinalScore:              400,
		LeaderboardPointsEarned: 120,
		SkillPointsEarned:       60,
		SurvivalTime:            60,
		Kills:                   15,
		EndReason:               models.EndReasonQuit,
	})
	require.NoError(t, err)
	require.True(t, result.Scores.AllOK(), "failed streams: %v", result.Scores.FailedStreams())

	var session models.GameSession
	require.NoError(t, svc.DB.First(&session, "id = ?", started.SessionID).Error)
	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.Equal(t, models.EndReasonQuit, session.EndReason)
	assert.NotNil(t, session.EndedAt)
	assert.Equal(t, int64(400), session.Score)

	var stored models.Profile
	require.NoError(t, svc.DB.First(&stored, "id = ?", prof.ID).Error)
	assert.Equal(t, int64(400), stored.HighestScore)
	assert.Equal(t, 120.0, stored.CurrentLeaderboardPoints)
	assert.Equal(t, 60.0, stored.CurrentSkillPoints)

	// Once ended, the session is no longer active.
	active, err := svc.GetActiveSession(prof.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestEndSessionDefaultsToPlayerDeath(t *testing.T) {
	svc, prof := newSessionService(t)

	started, err := svc.StartSession(prof.ID, "normal")
	require.NoError(t, err)

	_, err = svc.EndSession(context.Background(), started.SessionID, EndSessionInput{FinalScore: 10})
	require.NoError(t, err)

	var session models.GameSession
	require.NoError(t, svc.DB.First(&session, "id = ?", started.SessionID).Error)
	assert.Equal(t, models.EndReasonPlayerDeath, session.EndReason)
	assert.Equal(t, 1, session.WaveReached)
}

func TestEndSessionUnknownSession(t *testing.T) {
	svc, prof := newSessionService(t)

	_, err := svc.EndSession(context.Background(), uuid.NewString(), EndSessionInput{FinalScore: 10})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Nothing was recorded against the profile.
	var stored models.Profile
	require.NoError(t, svc.DB.First(&stored, "id = ?", prof.ID).Error)
	assert.Equal(t, int64(0), stored.GamesPlayed)
	assert.Equal(t, int64(0), stored.HighestScore)
}

func TestEndSessionRetryDoesNotDoubleCount(t *testing.T) {
	svc, prof := newSessionService(t)
	ctx := context.Background()

	started, err := svc.StartSession(prof.ID, "normal")
	require.NoError(t, err)

	in := EndSessionInput{FinalScore: 200, LeaderboardPointsEarned: 50, SkillPointsEarned: 25, SurvivalTime: 25}
	_, err = svc.EndSession(ctx, started.SessionID, in)
	require.NoError(t, err)

	retry, err := svc.EndSession(ctx, started.SessionID, in)
	require.NoError(t, err)
	assert.True(t, retry.Scores.Normal.AlreadyRecorded)
	assert.True(t, retry.Scores.Leaderboard.AlreadyRecorded)
	assert.True(t, retry.Scores.Skill.AlreadyRecorded)

	var stored models.Profile
	require.NoError(t, svc.DB.First(&stored, "id = ?", prof.ID).Error)
	assert.Equal(t, int64(1), stored.GamesPlayed)
	assert.Equal(t, 50.0, stored.CurrentLeaderboardPoints)
	assert.Equal(t, 25.0, stored.CurrentSkillPoints)
}

func TestGetActiveSessionReturnsLatest(t *testing.T) {
	svc, prof := newSessionService(t)

	first, err := svc.StartSession(prof.ID, "normal")
	require.NoError(t, err)
	second, err := svc.StartSession(prof.ID, "endless")
	require.NoError(t, err)

	active, err := svc.GetActiveSession(prof.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.SessionID, active.ID)
	assert.NotEqual(t, first.SessionID, active.ID)
}

func TestEndSessionCompletesWhenStreamsFail(t *testing.T) {
	svc, prof := newSessionService(t)

	started, err := svc.StartSession(prof.ID, "normal")
	require.NoError(t, err)

	// A cancelled context fails every ledger write; the completed
	// transition must stand regardless.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.EndSession(ctx, started.SessionID, EndSessionInput{
		FinalScore:              300,
		LeaderboardPointsEarned: 80,
		SkillPointsEarned:       40,
		SurvivalTime:            40,
	})
	require.NoError(t, err)

	assert.False(t, result.Scores.AllOK())
	assert.ElementsMatch(t, []string{StreamNormal, StreamLeaderboard, StreamSkill}, result.Scores.FailedStreams())
	assert.NotEmpty(t, result.Scores.Normal.Error)
	assert.NotEmpty(t, result.Scores.Leaderboard.Error)
	assert.NotEmpty(t, result.Scores.Skill.Error)

	var session models.GameSession
	require.NoError(t, svc.DB.First(&session, "id = ?", started.SessionID).Error)
	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.NotNil(t, session.EndedAt)

	// Nothing reached the ledger or the profile aggregates.
	var stored models.Profile
	require.NoError(t, svc.DB.First(&stored, "id = ?", prof.ID).Error)
	assert.Equal(t, int64(0), stored.GamesPlayed)
	assert.Equal(t, int64(0), stored.HighestScore)
	assert.Equal(t, 0.0, stored.CurrentLeaderboardPoints)
	assert.Equal(t, 0.0, stored.CurrentSkillPoints)

	var recorded int64
	require.NoError(t, svc.DB.Model(&models.NormalScore{}).Where("session_id = ?", started.SessionID).Count(&recorded).Error)
	assert.Equal(t, int64(0), recorded)
}
