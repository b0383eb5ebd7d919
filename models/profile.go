package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the player's persistent progression identity (denormalized for performance).
// Identity columns (username, email, avatar, is_active) are owned by the account
// service and mirrored by the profile sync worker; progression columns are only
// written through the session/score/skill services.
type Profile struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"index;not null" json:"username"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	IsActive bool   `json:"is_active" gorm:"default:true"`

	// Core progression
	Level      int   `json:"level" gorm:"default:1"`
	Experience int64 `json:"experience" gorm:"default:0"`
	Coins      int64 `json:"coins" gorm:"default:50"`

	// Spendable skill point balance — debited by skill upgrades,
	// credited when a session's skill-point stream is recorded.
	SkillPoints int64 `json:"skill_points" gorm:"default:0"`

	// Lifetime accumulated point streams (monotonic, mirror the score tables)
	CurrentLeaderboardPoints float64 `json:"current_leaderboard_points" gorm:"default:0"`
	CurrentSkillPoints       float64 `json:"current_skill_points" gorm:"default:0"`

	// Personal bests and lifetime aggregates
	HighestScore        int64   `json:"highest_score" gorm:"default:0"`
	LongestSurvivalTime float64 `json:"longest_survival_time" gorm:"default:0"`
	GamesPlayed         int64   `json:"games_played" gorm:"default:0"`
	TotalKills          int64   `json:"total_kills" gorm:"default:0"`
	TotalPlayTime       float64 `json:"total_play_time" gorm:"default:0"`
	TotalDamageDealt    int64   `json:"total_damage_dealt" gorm:"default:0"`
	TotalDamageTaken    int64   `json:"total_damage_taken" gorm:"default:0"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
