package models

import "time"

const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

const (
	EndReasonPlayerDeath = "player_death"
	EndReasonQuit        = "player_quit"
	EndReasonAbandoned   = "abandoned"
)

// GameSession records one play attempt from start to death/quit.
// Terminal once status = completed; the reaper ends sessions whose
// clients stopped reporting progress.
type GameSession struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProfileID string `gorm:"index;not null" json:"profile_id"`
	GameMode  string `gorm:"type:varchar(32);default:'normal'" json:"game_mode"`
	Status    string `gorm:"type:varchar(16);index;default:'in_progress'" json:"status"`

	// Live counters — overwritten wholesale on every progress report
	Score          int64   `json:"score" gorm:"default:0"`
	SurvivalTime   float64 `json:"survival_time" gorm:"default:0"`
	Kills          int64   `json:"kills" gorm:"default:0"`
	EnemiesSpawned int64   `json:"enemies_spawned" gorm:"default:0"`
	DamageDealt    int64   `json:"damage_dealt" gorm:"default:0"`
	DamageTaken    int64   `json:"damage_taken" gorm:"default:0"`
	WaveReached    int     `json:"wave_reached" gorm:"default:1"`

	LeaderboardPointsEarned float64 `json:"leaderboard_points_earned" gorm:"default:0"`
	SkillPointsEarned       float64 `json:"skill_points_earned" gorm:"default:0"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	EndReason string     `json:"end_reason,omitempty"`

	Timestamps
}

// GameProgressSnapshot is an append-only copy of a session's counters at
// report time. Write-only audit trail for external analytics; the live
// session row is the authoritative state.
type GameProgressSnapshot struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	SessionID string `gorm:"index;not null" json:"session_id"`
	ProfileID string `gorm:"index;not null" json:"profile_id"`

	Score             int64   `json:"score"`
	LeaderboardPoints float64 `json:"leaderboard_points"`
	SkillPoints       float64 `json:"skill_points"`
	SurvivalTime      float64 `json:"survival_time"`
	Kills             int64   `json:"kills"`
	EnemiesSpawned    int64   `json:"enemies_spawned"`
	DamageDealt       int64   `json:"damage_dealt"`
	DamageTaken       int64   `json:"damage_taken"`
	WaveReached       int     `json:"wave_reached"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
