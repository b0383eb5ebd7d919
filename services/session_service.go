package services

import (
	"context"
	"errors"
	"log"
	"time"

	"game-progression-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService owns the play-session lifecycle: start → progress reports →
// end. Final persistence of the three score streams is delegated to the
// ScoreService; a downstream bookkeeping failure never blocks the
// in_progress → completed transition.
type SessionService struct {
	DB     *gorm.DB
	Scores *ScoreService
}

func NewSessionService(db *gorm.DB, scores *ScoreService) *SessionService {
	return &SessionService{DB: db, Scores: scores}
}

type StartSessionResult struct {
	SessionID string `json:"session_id"`
	ProfileID string `json:"profile_id"`
}

// StartSession verifies the profile exists and creates a fresh session with
// zeroed counters. Concurrently open sessions per profile are not limited;
// the reaper cleans up any the client walked away from.
func (s *SessionService) StartSession(profileID, gameMode string) (*StartSessionResult, error) {
	if gameMode == "" {
		gameMode = "normal"
	}

	var prof models.Profile
	if err := s.DB.Select("id").First(&prof, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	session := &models.GameSession{
		ID:          uuid.NewString(),
		ProfileID:   prof.ID,
		GameMode:    gameMode,
		Status:      models.SessionInProgress,
		WaveReached: 1,
		StartedAt:   time.Now(),
	}
	if err := s.DB.Create(session).Error; err != nil {
		return nil, err
	}

	log.Printf("🎮 Started session %s for profile %s (mode=%s)", session.ID, prof.ID, gameMode)
	return &StartSessionResult{SessionID: session.ID, ProfileID: prof.ID}, nil
}

// ProgressUpdate is a full snapshot of the session's live counters — each
// report overwrites, never accumulates.
type ProgressUpdate struct {
	Score             int64   `json:"current_score"`
	LeaderboardPoints float64 `json:"leaderboard_points"`
	SkillPoints       float64 `json:"skill_points"`
	SurvivalTime      float64 `json:"survival_time"`
	Kills             int64   `json:"kills"`
	EnemiesSpawned    int64   `json:"enemies_spawned"`
	DamageDealt       int64   `json:"damage_dealt"`
	DamageTaken       int64   `json:"damage_taken"`
	WaveReached       int     `json:"wave_reached"`
}

// SaveProgress overwrites the session's live counters and appends an
// immutable snapshot row. The snapshot trail is write-only here — external
// analytics read it, the core never does.
func (s *SessionService) SaveProgress(sessionID string, in ProgressUpdate) (*models.GameSession, error) {
	if in.WaveReached < 1 {
		in.WaveReached = 1
	}

	var session models.GameSession
	if err := s.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"score":                     in.Score,
		"leaderboard_points_earned": in.LeaderboardPoints,
		"skill_points_earned":       in.SkillPoints,
		"survival_time":             in.SurvivalTime,
		"kills":                     in.Kills,
		"enemies_spawned":           in.EnemiesSpawned,
		"damage_dealt":              in.DamageDealt,
		"damage_taken":              in.DamageTaken,
		"wave_reached":              in.WaveReached,
	}
	if err := s.DB.Model(&session).Updates(updates).Error; err != nil {
		return nil, err
	}

	snapshot := models.GameProgressSnapshot{
		ID:                uuid.NewString(),
		SessionID:         session.ID,
		ProfileID:         session.ProfileID,
		Score:             in.Score,
		LeaderboardPoints: in.LeaderboardPoints,
		SkillPoints:       in.SkillPoints,
		SurvivalTime:      in.SurvivalTime,
		Kills:             in.Kills,
		EnemiesSpawned:    in.EnemiesSpawned,
		DamageDealt:       in.DamageDealt,
		DamageTaken:       in.DamageTaken,
		WaveReached:       in.WaveReached,
	}
	if err := s.DB.Create(&snapshot).Error; err != nil {
		// Snapshot is an audit record; losing one doesn't invalidate the session.
		log.Printf("⚠️ Failed to append progress snapshot for session %s: %v", sessionID, err)
	}

	return &session, nil
}

type EndSessionInput struct {
	FinalScore              int64   `json:"final_score"`
	LeaderboardPointsEarned float64 `json:"leaderboard_points_earned"`
	SkillPointsEarned       float64 `json:"skill_points_earned"`
	SurvivalTime            float64 `json:"survival_time"`
	Kills                   int64   `json:"kills"`
	EnemiesSpawned          int64   `json:"enemies_spawned"`
	DamageDealt             int64   `json:"damage_dealt"`
	DamageTaken             int64   `json:"damage_taken"`
	WaveReached             int     `json:"wave_reached"`
	EndReason               string  `json:"end_reason"`
}

type EndSessionResult struct {
	SessionID string           `json:"session_id"`
	ProfileID string           `json:"profile_id"`
	Scores    *AllScoresResult `json:"scores"`
}

// EndSession transitions the session to completed exactly once, then hands
// the outcome to the score ledger. Stream failures come back enumerated in
// the result — the completed state is authoritative and is not rolled back.
func (s *SessionService) EndSession(ctx context.Context, sessionID string, in EndSessionInput) (*EndSessionResult, error) {
	if in.WaveReached < 1 {
		in.WaveReached = 1
	}
	if in.EndReason == "" {
		in.EndReason = models.EndReasonPlayerDeath
	}

	var session models.GameSession
	if err := s.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	endedAt := time.Now()
	if err := s.DB.Model(&session).Updates(map[string]interface{}{
		"status":                    models.SessionCompleted,
		"score":                     in.FinalScore,
		"leaderboard_points_earned": in.LeaderboardPointsEarned,
		"skill_points_earned":       in.SkillPointsEarned,
		"survival_time":             in.SurvivalTime,
		"kills":                     in.Kills,
		"enemies_spawned":           in.EnemiesSpawned,
		"damage_dealt":              in.DamageDealt,
		"damage_taken":              in.DamageTaken,
		"wave_reached":              in.WaveReached,
		"end_reason":                in.EndReason,
		"ended_at":                  endedAt,
	}).Error; err != nil {
		return nil, err
	}

	scores := s.Scores.SaveAllScores(ctx, session.ProfileID, session.ID, SessionOutcome{
		Normal: NormalScoreInput{
			Score:          in.FinalScore,
			SurvivalTime:   in.SurvivalTime,
			Kills:          in.Kills,
			EnemiesSpawned: in.EnemiesSpawned,
			DamageDealt:    in.DamageDealt,
			DamageTaken:    in.DamageTaken,
			WaveReached:    in.WaveReached,
		},
		LeaderboardPoints: in.LeaderboardPointsEarned,
		SkillPoints:       in.SkillPointsEarned,
		SessionStart:      session.StartedAt,
		SessionEnd:        endedAt,
	})

	log.Printf("🏁 Session %s ended (reason=%s, all streams ok=%t)", sessionID, in.EndReason, scores.AllOK())

	return &EndSessionResult{
		SessionID: session.ID,
		ProfileID: session.ProfileID,
		Scores:    scores,
	}, nil
}

// GetActiveSession returns the profile's most recently started in-progress
// session, or nil when none is open.
func (s *SessionService) GetActiveSession(profileID string) (*models.GameSession, error) {
	var prof models.Profile
	if err := s.DB.Select("id").First(&prof, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var session models.GameSession
	err := s.DB.
		Where("profile_id = ? AND status = ?", profileID, models.SessionInProgress).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// UserStats is the slim profile view the game client loads on boot.
type UserStats struct {
	ProfileID   string `json:"profile_id"`
	Level       int    `json:"level"`
	SkillPoints int64  `json:"skill_points"`
	Coins       int64  `json:"coins"`
}

func (s *SessionService) GetUserStats(profileID string) (*UserStats, error) {
	var prof models.Profile
	err := s.DB.Select("id", "level", "skill_points", "coins").First(&prof, "id = ?", profileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &UserStats{
		ProfileID:   prof.ID,
		Level:       prof.Level,
		SkillPoints: prof.SkillPoints,
		Coins:       prof.Coins,
	}, nil
}
