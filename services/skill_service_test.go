package services

import (
	"errors"
	"testing"

	"game-progression-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSkillService(t *testing.T) *SkillService {
	t.Helper()
	db := newTestDB(t)

	base := createTestSkill(t, db, "rapid_fire", "Rapid Fire", "combat", 3, 100, 1.5, 1)
	createTestSkill(t, db, "iron_skin", "Iron Skin", "defense", 5, 100, 1.5, 10)
	gated := createTestSkill(t, db, "bullet_storm", "Bullet Storm", "combat", 3, 200, 1.5, 1)
	require.NoError(t, db.Create(&models.SkillPrerequisite{
		ID:              uuid.NewString(),
		SkillID:         gated.ID,
		RequiredSkillID: base.ID,
		RequiredLevel:   2,
	}).Error)
	require.NoError(t, db.Create(&models.SkillEffect{
		ID:               uuid.NewString(),
		SkillID:          base.ID,
		EffectType:       "fire_rate",
		BaseValue:        10,
		PerLevelIncrease: 5,
		IsPercentage:     true,
	}).Error)

	catalog := NewSkillCatalog()
	require.NoError(t, catalog.Load(db))
	return NewSkillService(db, catalog)
}

func grantSkillPoints(t *testing.T, svc *SkillService, profileID string, points int64) {
	t.Helper()
	require.NoError(t, svc.DB.Model(&models.Profile{}).
		Where("id = ?", profileID).
		Update("skill_points", points).Error)
}

func TestUpgradeSkillDeductsAndLevels(t *testing.T) {
	svc := newSkillService(t)
	prof := createTestProfile(t, svc.DB, "player")
	grantSkillPoints(t, svc, prof.ID, 300)

	result, err := svc.UpgradeSkill(prof.ID, "rapid_fire")
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewLevel)
	assert.Equal(t, int64(100), result.CostPaid)
	assert.Equal(t, int64(200), result.RemainingSkillPoints)

	// Second level costs baseCost * multiplier.
	result, err = svc.UpgradeSkill(prof.ID, "rapid_fire")
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewLevel)
	assert.Equal(t, int64(150), result.CostPaid)
	assert.Equal(t, int64(50), result.RemainingSkillPoints)

	var us models.UserSkill
	require.NoError(t, svc.DB.First(&us, "profile_id = ?", prof.ID).Error)
	assert.Equal(t, 2, us.Level)
}

func TestUpgradeSkillInsufficientPoints(t *testing.T) {
	svc := newSkillService(t)
	prof := createTestProfile(t, svc.DB, "broke")
	grantSkillPoints(t, svc, prof.ID, 99)

	_, err := svc.UpgradeSkill(prof.ID, "rapid_fire")
	var ue *InvalidUpgradeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, UpgradeReasonInsufficientPoints, ue.Reason)

	// The balance is untouched on a rejected upgrade.
	var stored models.Profile
	require.NoError(t, svc.DB.First(&stored, "id = ?", prof.ID).Error)
	assert.Equal(t, int64(99), stored.SkillPoints)
}

func TestUpgradeSkillMaxLevel(t *testing.T) {
	svc := newSkillService(t)
	prof := createTestProfile(t, svc.DB, "capped")
	grantSkillPoints(t, svc, prof.ID, 100000)

	for i := 0; i < 3; i++ {
		_, err := svc.UpgradeSkill(prof.ID, "rapid_fire")
		require.NoError(t, err)
	}

	_, err := svc.UpgradeSkill(prof.ID, "rapid_fire")
	var ue *InvalidUpgradeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, UpgradeReasonMaxLevel, ue.Reason)
}

func TestUpgradeSkillUnlockLevelGate(t *testing.T) {
	svc := newSkillService(t)
	prof := createTestProfile(t, svc.DB, "novice") // level 1
	grantSkillPoints(t, svc, prof.ID, 100000)

	_, err := svc.UpgradeSkill(prof.ID, "iron_skin")
	var ue *InvalidUpgradeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, UpgradeReasonUnlockLevel, ue.Reason)
}

func TestUpgradeSkillPrerequisiteGate(t *testing.T) {
	svc := newSkillService(t)
	prof := createTestProfile(t, svc.DB, "hasty")
	grantSkillPoints(t, svc, prof.ID, 100000)

	_, err := svc.UpgradeSkill(prof.ID, "bullet_storm")
	var ue *InvalidUpgradeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, UpgradeReasonPrerequisite, ue.Reason)
	assert.Equal(t, "rapid_fire", ue.Detail)

	// Meeting the prerequisite opens the skill.
	_, err = svc.UpgradeSkill(prof.ID, "rapid_fire")
	require.NoError(t, err)
	_, err = svc.UpgradeSkill(prof.ID, "rapid_fire")
	require.NoError(t, err)
	_, err = svc.UpgradeSkill(prof.ID, "bullet_storm")
	require.NoError(t, err)
}

func TestUpgradeSkillUnknownSkill(t *testing.T) {
	svc := newSkillService(t)
	prof := createTestProfile(t, svc.DB, "lost")

	_, err := svc.UpgradeSkill(prof.ID, "no_such_skill")
	assert.ErrorIs(t, err, ErrSkillNotFound)
}

func TestUpgradeSkillUnknownProfile(t *testing.T) {
	svc := newSkillService(t)

	_, err := svc.UpgradeSkill(uuid.NewString(), "rapid_fire")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGetUserSkillsAnnotations(t *testing.T) {
	svc := newSkillService(t)
	prof := createTestProfile(t, svc.DB, "curious")
	grantSkillPoints(t, svc, prof.ID, 100)

	view, err := svc.GetUserSkills(prof.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), view.SkillPoints)
	assert.Equal(t, 1, view.UserLevel)
	require.Len(t, view.Skills, 3)

	byID := make(map[string]SkillView, len(view.Skills))
	for _, v := range view.Skills {
		byID[v.SkillID] = v
	}

	assert.True(t, byID["rapid_fire"].CanUpgrade)
	assert.False(t, byID["bullet_storm"].CanUpgrade)
	assert.False(t, byID["iron_skin"].IsUnlocked)
}

func TestSkillEffectValues(t *testing.T) {
	svc := newSkillService(t)

	var view SkillView
	for _, v := range svc.ListSkills() {
		if v.SkillID == "rapid_fire" {
			view = v
		}
	}
	require.Len(t, view.Effects, 1)
	// Unlearned: no current value; next level is base plus one increment.
	assert.Equal(t, 0.0, view.Effects[0].CurrentValue)
	assert.Equal(t, 15.0, view.Effects[0].NextValue)
}

func TestCreateSkillSlugsAndReloads(t *testing.T) {
	svc := newSkillService(t)

	skill, err := svc.CreateSkill(CreateSkillInput{
		Name:     "plasma overdrive",
		Category: "combat",
		Effects: []CreateEffectInput{
			{EffectType: "damage", BaseValue: 5, PerLevelIncrease: 2},
		},
		Prerequisites: []CreatePrereqInput{
			{RequiredSkillID: "rapid_fire", RequiredLevel: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "plasma-overdrive", skill.SkillID)
	assert.Equal(t, "Plasma Overdrive", skill.Name)
	assert.Equal(t, 5, skill.MaxLevel)
	assert.Equal(t, int64(100), skill.BaseCost)

	// The catalog sees the new skill without a restart.
	loaded, ok := svc.Catalog.Get(skill.SkillID)
	require.True(t, ok)
	edges := svc.Catalog.Prerequisites(loaded.ID)
	require.Len(t, edges, 1)
	assert.Equal(t, "rapid_fire", edges[0].RequiredSkillSlug)
}

func TestCreateSkillUnknownPrerequisite(t *testing.T) {
	svc := newSkillService(t)

	_, err := svc.CreateSkill(CreateSkillInput{
		Name: "orphan skill",
		Prerequisites: []CreatePrereqInput{
			{RequiredSkillID: "missing", RequiredLevel: 1},
		},
	})
	assert.ErrorIs(t, err, ErrSkillNotFound)
}
