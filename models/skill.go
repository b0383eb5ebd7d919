package models

import "time"

// Skill is a catalog entry. Immutable at runtime — edits happen through the
// admin endpoint, which reloads the in-memory catalog.
type Skill struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	SkillID     string `gorm:"uniqueIndex;not null" json:"skill_id"` // slug, e.g. "rapid-fire"
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Category    string `gorm:"index" json:"category"`
	Icon        string `json:"icon"`

	MaxLevel       int     `json:"max_level" gorm:"default:5"`
	BaseCost       int64   `json:"base_cost" gorm:"default:100"`
	CostMultiplier float64 `json:"cost_multiplier" gorm:"default:1.5"`
	UnlockLevel    int     `json:"unlock_level" gorm:"default:1"` // profile level gate

	Effects       []SkillEffect       `json:"effects" gorm:"foreignKey:SkillID"`
	Prerequisites []SkillPrerequisite `json:"prerequisites" gorm:"foreignKey:SkillID"`

	Timestamps
}

type SkillEffect struct {
	ID               string  `gorm:"primaryKey;type:uuid" json:"id"`
	SkillID          string  `gorm:"index;not null" json:"skill_id"` // FK → skills.id
	EffectType       string  `gorm:"not null" json:"effect_type"`
	BaseValue        float64 `json:"base_value"`
	PerLevelIncrease float64 `json:"per_level_increase"`
	IsPercentage     bool    `json:"is_percentage"`
}

// SkillPrerequisite is a directed edge: SkillID requires RequiredSkillID
// at RequiredLevel or higher before any upgrade.
type SkillPrerequisite struct {
	ID              string `gorm:"primaryKey;type:uuid" json:"id"`
	SkillID         string `gorm:"index;not null" json:"skill_id"`          // FK → skills.id (dependent)
	RequiredSkillID string `gorm:"index;not null" json:"required_skill_id"` // FK → skills.id (required)
	RequiredLevel   int    `json:"required_level" gorm:"default:1"`
}

// UserSkill joins Profile × Skill. Level 0 means not learned; rows are
// created on first upgrade and never deleted.
type UserSkill struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	ProfileID string `gorm:"index:idx_user_skill,unique;not null" json:"profile_id"`
	SkillID   string `gorm:"index:idx_user_skill,unique;not null" json:"skill_id"` // FK → skills.id

	Level      int       `json:"level" gorm:"default:0"`
	UnlockedAt time.Time `json:"unlocked_at" gorm:"autoCreateTime"`

	Timestamps
}
