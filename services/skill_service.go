package services

import (
	"errors"
	"log"

	"game-progression-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SkillService struct {
	DB      *gorm.DB
	Catalog *SkillCatalog
}

func NewSkillService(db *gorm.DB, catalog *SkillCatalog) *SkillService {
	return &SkillService{DB: db, Catalog: catalog}
}

// EffectView carries the effect's value at the current and next level,
// mirroring what the skill tree UI renders.
type EffectView struct {
	Type         string  `json:"type"`
	BaseValue    float64 `json:"base_value"`
	CurrentValue float64 `json:"current_value"`
	NextValue    float64 `json:"next_value"`
	IsPercentage bool    `json:"is_percentage"`
}

type PrereqView struct {
	SkillID string `json:"skill_id"`
	Level   int    `json:"level"`
}

type SkillView struct {
	SkillID        string       `json:"skill_id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	Icon           string       `json:"icon"`
	MaxLevel       int          `json:"max_level"`
	BaseCost       int64        `json:"base_cost"`
	CostMultiplier float64      `json:"cost_multiplier"`
	UnlockLevel    int          `json:"unlock_level"`
	Effects        []EffectView `json:"effects"`
	Prerequisites  []PrereqView `json:"prerequisites"`

	// Per-profile fields, zero-valued in the public catalog listing
	CurrentLevel  int    `json:"current_level"`
	CanUpgrade    bool   `json:"can_upgrade"`
	UpgradeReason string `json:"upgrade_blocked_by,omitempty"`
	NextLevelCost int64  `json:"next_level_cost"`
	IsMaxLevel    bool   `json:"is_max_level"`
	IsUnlocked    bool   `json:"is_unlocked"`
}

func (s *SkillService) skillView(sk *models.Skill, currentLevel int) SkillView {
	v := SkillView{
		SkillID:        sk.SkillID,
		Name:           sk.Name,
		Description:    sk.Description,
		Category:       sk.Category,
		Icon:           sk.Icon,
		MaxLevel:       sk.MaxLevel,
		BaseCost:       sk.BaseCost,
		CostMultiplier: sk.CostMultiplier,
		UnlockLevel:    sk.UnlockLevel,
		CurrentLevel:   currentLevel,
		NextLevelCost:  UpgradeCost(sk, currentLevel),
		IsMaxLevel:     currentLevel >= sk.MaxLevel,
	}
	for _, e := range sk.Effects {
		ev := EffectView{
			Type:         e.EffectType,
			BaseValue:    e.BaseValue,
			IsPercentage: e.IsPercentage,
		}
		if currentLevel > 0 {
			ev.CurrentValue = e.BaseValue + float64(currentLevel)*e.PerLevelIncrease
		}
		if currentLevel < sk.MaxLevel {
			ev.NextValue = e.BaseValue + float64(currentLevel+1)*e.PerLevelIncrease
		}
		v.Effects = append(v.Effects, ev)
	}
	for _, edge := range s.Catalog.Prerequisites(sk.ID) {
		v.Prerequisites = append(v.Prerequisites, PrereqView{SkillID: edge.RequiredSkillSlug, Level: edge.RequiredLevel})
	}
	return v
}

// ListSkills returns the public catalog, ordered by category then name.
func (s *SkillService) ListSkills() []SkillView {
	all := s.Catalog.All()
	out := make([]SkillView, 0, len(all))
	for _, sk := range all {
		out = append(out, s.skillView(sk, 0))
	}
	return out
}

func (s *SkillService) SkillsByCategory() map[string][]SkillView {
	out := make(map[string][]SkillView)
	for _, sk := range s.Catalog.All() {
		out[sk.Category] = append(out[sk.Category], s.skillView(sk, 0))
	}
	return out
}

// UserSkillsView is the full per-profile skill tree: every catalog skill
// annotated with the profile's level and upgrade eligibility.
type UserSkillsView struct {
	Skills      []SkillView `json:"skills"`
	SkillPoints int64       `json:"skill_points"`
	Coins       int64       `json:"coins"`
	UserLevel   int         `json:"user_level"`
}

func (s *SkillService) userSkillLevels(db *gorm.DB, profileID string) (map[string]int, error) {
	var rows []models.UserSkill
	if err := db.Where("profile_id = ?", profileID).Find(&rows).Error; err != nil {
		return nil, err
	}
	levels := make(map[string]int, len(rows))
	for _, r := range rows {
		levels[r.SkillID] = r.Level
	}
	return levels, nil
}

func (s *SkillService) GetUserSkills(profileID string) (*UserSkillsView, error) {
	var prof models.Profile
	if err := s.DB.Select("id", "level", "skill_points", "coins").First(&prof, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	levels, err := s.userSkillLevels(s.DB, profileID)
	if err != nil {
		return nil, err
	}

	view := &UserSkillsView{
		SkillPoints: prof.SkillPoints,
		Coins:       prof.Coins,
		UserLevel:   prof.Level,
	}
	for _, sk := range s.Catalog.All() {
		current := levels[sk.ID]
		v := s.skillView(sk, current)
		ok, reason, detail := s.Catalog.CanUpgrade(sk, current, prof.SkillPoints, prof.Level, levels)
		v.CanUpgrade = ok
		if !ok {
			v.UpgradeReason = reason
			if detail != "" {
				v.UpgradeReason = reason + ":" + detail
			}
		}
		v.IsUnlocked = prof.Level >= sk.UnlockLevel
		view.Skills = append(view.Skills, v)
	}
	return view, nil
}

type UpgradeResult struct {
	SkillID              string `json:"skill_id"`
	NewLevel             int    `json:"new_level"`
	CostPaid             int64  `json:"cost_paid"`
	RemainingSkillPoints int64  `json:"remaining_skill_points"`
}

// UpgradeSkill re-validates everything inside the transaction — the caller's
// earlier CanUpgrade result is never trusted, since balances may have
// changed between query and commit. The deduction carries a balance guard
// and the level bump an optimistic level guard, so a race with a session end
// or a second upgrade fails cleanly instead of corrupting the balance.
func (s *SkillService) UpgradeSkill(profileID, skillSlug string) (*UpgradeResult, error) {
	sk, ok := s.Catalog.Get(skillSlug)
	if !ok {
		return nil, ErrSkillNotFound
	}

	var result *UpgradeResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prof models.Profile
		if err := tx.Select("id", "level", "skill_points").First(&prof, "id = ?", profileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		levels, err := s.userSkillLevels(tx, profileID)
		if err != nil {
			return err
		}
		currentLevel := levels[sk.ID]

		if ok, reason, detail := s.Catalog.CanUpgrade(sk, currentLevel, prof.SkillPoints, prof.Level, levels); !ok {
			return &InvalidUpgradeError{SkillID: skillSlug, Reason: reason, Detail: detail}
		}

		cost := UpgradeCost(sk, currentLevel)

		// Guarded deduction: fails if a concurrent spend drained the balance
		// after the check above.
		ded := tx.Model(&models.Profile{}).
			Where("id = ? AND skill_points >= ?", profileID, cost).
			Update("skill_points", gorm.Expr("skill_points - ?", cost))
		if ded.Error != nil {
			return ded.Error
		}
		if ded.RowsAffected == 0 {
			return &InvalidUpgradeError{SkillID: skillSlug, Reason: UpgradeReasonInsufficientPoints}
		}

		newLevel := currentLevel + 1
		if currentLevel == 0 {
			ins := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "profile_id"}, {Name: "skill_id"}},
				DoNothing: true,
			}).Create(&models.UserSkill{
				ID:        uuid.NewString(),
				ProfileID: profileID,
				SkillID:   sk.ID,
				Level:     newLevel,
			})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 0 {
				// A concurrent first upgrade won; the deduction rolls back.
				return &InvalidUpgradeError{SkillID: skillSlug, Reason: UpgradeReasonConflict}
			}
		} else {
			upd := tx.Model(&models.UserSkill{}).
				Where("profile_id = ? AND skill_id = ? AND level = ?", profileID, sk.ID, currentLevel).
				Update("level", newLevel)
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected == 0 {
				return &InvalidUpgradeError{SkillID: skillSlug, Reason: UpgradeReasonConflict}
			}
		}

		if err := tx.Select("skill_points").First(&prof, "id = ?", profileID).Error; err != nil {
			return err
		}

		result = &UpgradeResult{
			SkillID:              skillSlug,
			NewLevel:             newLevel,
			CostPaid:             cost,
			RemainingSkillPoints: prof.SkillPoints,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("⬆️ Skill upgraded: %s → L%d for profile %s (cost=%d)", skillSlug, result.NewLevel, profileID, result.CostPaid)
	return result, nil
}

type CreateEffectInput struct {
	EffectType       string  `json:"effect_type"`
	BaseValue        float64 `json:"base_value"`
	PerLevelIncrease float64 `json:"per_level_increase"`
	IsPercentage     bool    `json:"is_percentage"`
}

type CreatePrereqInput struct {
	RequiredSkillID string `json:"required_skill_id"` // slug of the required skill
	RequiredLevel   int    `json:"required_level"`
}

type CreateSkillInput struct {
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Category       string              `json:"category"`
	Icon           string              `json:"icon"`
	MaxLevel       int                 `json:"max_level"`
	BaseCost       int64               `json:"base_cost"`
	CostMultiplier float64             `json:"cost_multiplier"`
	UnlockLevel    int                 `json:"unlock_level"`
	Effects        []CreateEffectInput `json:"effects"`
	Prerequisites  []CreatePrereqInput `json:"prerequisites"`
}

// CreateSkill is the administrative catalog edit: inserts the skill with its
// effects and prerequisite edges, then reloads the in-memory graph. The
// canonical skill_id is slugged from the name ("Rapid Fire" → "rapid-fire").
func (s *SkillService) CreateSkill(in CreateSkillInput) (*models.Skill, error) {
	if in.MaxLevel < 1 {
		in.MaxLevel = 5
	}
	if in.BaseCost < 1 {
		in.BaseCost = 100
	}
	if in.CostMultiplier <= 0 {
		in.CostMultiplier = 1.5
	}
	if in.UnlockLevel < 1 {
		in.UnlockLevel = 1
	}

	slug.Lowercase = true
	skillSlug := slug.MakeLang(in.Name, "en")
	displayName := cases.Title(language.English).String(in.Name)

	skill := &models.Skill{
		ID:             uuid.NewString(),
		SkillID:        skillSlug,
		Name:           displayName,
		Description:    in.Description,
		Category:       in.Category,
		Icon:           in.Icon,
		MaxLevel:       in.MaxLevel,
		BaseCost:       in.BaseCost,
		CostMultiplier: in.CostMultiplier,
		UnlockLevel:    in.UnlockLevel,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Effects", "Prerequisites").Create(skill).Error; err != nil {
			return err
		}
		for _, e := range in.Effects {
			eff := models.SkillEffect{
				ID:               uuid.NewString(),
				SkillID:          skill.ID,
				EffectType:       e.EffectType,
				BaseValue:        e.BaseValue,
				PerLevelIncrease: e.PerLevelIncrease,
				IsPercentage:     e.IsPercentage,
			}
			if err := tx.Create(&eff).Error; err != nil {
				return err
			}
		}
		for _, p := range in.Prerequisites {
			required, ok := s.Catalog.Get(p.RequiredSkillID)
			if !ok {
				return ErrSkillNotFound
			}
			edge := models.SkillPrerequisite{
				ID:              uuid.NewString(),
				SkillID:         skill.ID,
				RequiredSkillID: required.ID,
				RequiredLevel:   p.RequiredLevel,
			}
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Catalog.Load(s.DB); err != nil {
		log.Printf("⚠️ Failed to reload skill catalog after create: %v", err)
	}

	log.Printf("🛠️ Skill created: %s (%s)", displayName, skillSlug)
	return skill, nil
}

// SetSkillIcon stores the icon URL for a skill and refreshes the catalog.
func (s *SkillService) SetSkillIcon(skillSlug, iconURL string) error {
	skill, ok := s.Catalog.Get(skillSlug)
	if !ok {
		return ErrSkillNotFound
	}
	if err := s.DB.Model(&models.Skill{}).Where("id = ?", skill.ID).Update("icon", iconURL).Error; err != nil {
		return err
	}
	return s.Catalog.Load(s.DB)
}
