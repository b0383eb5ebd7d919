package models

import "time"

// Fixed earning rates — provenance metadata stamped on every accumulated
// score record, not recomputed from survival time at write.
const (
	LeaderboardEarningRate = 2.0 // points per second survived
	SkillEarningRate       = 1.0
)

// NormalScore is the immutable per-session raw score record.
// One row per completed session; session_id is the idempotency key.
type NormalScore struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProfileID string `gorm:"index;not null" json:"profile_id"`
	SessionID string `gorm:"uniqueIndex;not null" json:"session_id"`

	Score          int64   `json:"score"`
	SurvivalTime   float64 `json:"survival_time"`
	Kills          int64   `json:"kills"`
	EnemiesSpawned int64   `json:"enemies_spawned"`
	DamageDealt    int64   `json:"damage_dealt"`
	DamageTaken    int64   `json:"damage_taken"`
	WaveReached    int     `json:"wave_reached"`

	// Strictly greater than the profile's highest score at write time; ties don't count.
	IsPersonalBest bool `json:"is_personal_best"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// LeaderboardScore is the immutable per-session leaderboard-points record.
// TotalAccumulatedPoints snapshots the profile total after this session.
type LeaderboardScore struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProfileID string `gorm:"index;not null" json:"profile_id"`
	SessionID string `gorm:"uniqueIndex;not null" json:"session_id"`

	PointsEarnedThisSession float64 `json:"points_earned_this_session"`
	TotalAccumulatedPoints  float64 `json:"total_accumulated_points"`
	SurvivalTime            float64 `json:"survival_time"`
	EarningRate             float64 `json:"earning_rate"`

	SessionStartTime time.Time `json:"session_start_time"`
	SessionEndTime   time.Time `json:"session_end_time"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// SkillScore mirrors LeaderboardScore for the skill-point stream.
type SkillScore struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProfileID string `gorm:"index;not null" json:"profile_id"`
	SessionID string `gorm:"uniqueIndex;not null" json:"session_id"`

	PointsEarnedThisSession float64 `json:"points_earned_this_session"`
	TotalAccumulatedPoints  float64 `json:"total_accumulated_points"`
	PointsSpent             float64 `json:"points_spent" gorm:"default:0"`
	PointsAvailable         float64 `json:"points_available"`
	SurvivalTime            float64 `json:"survival_time"`
	EarningRate             float64 `json:"earning_rate"`

	SessionStartTime time.Time `json:"session_start_time"`
	SessionEndTime   time.Time `json:"session_end_time"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
