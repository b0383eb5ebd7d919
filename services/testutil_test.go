package services

import (
	"fmt"
	"strings"
	"testing"

	"game-progression-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database named after the test so parallel
// tests never share state. cache=shared keeps every pooled connection on
// the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.GameSession{},
		&models.GameProgressSnapshot{},
		&models.NormalScore{},
		&models.LeaderboardScore{},
		&models.SkillScore{},
		&models.Skill{},
		&models.SkillEffect{},
		&models.SkillPrerequisite{},
		&models.UserSkill{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestProfile(t *testing.T, db *gorm.DB, username string) *models.Profile {
	t.Helper()

	prof := &models.Profile{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		IsActive: true,
		Level:    1,
		Coins:    50,
	}
	if err := db.Create(prof).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return prof
}

func createTestSkill(t *testing.T, db *gorm.DB, slug, name, category string, maxLevel int, baseCost int64, multiplier float64, unlockLevel int) *models.Skill {
	t.Helper()

	sk := &models.Skill{
		ID:             uuid.NewString(),
		SkillID:        slug,
		Name:           name,
		Category:       category,
		MaxLevel:       maxLevel,
		BaseCost:       baseCost,
		CostMultiplier: multiplier,
		UnlockLevel:    unlockLevel,
	}
	if err := db.Create(sk).Error; err != nil {
		t.Fatalf("failed to create test skill: %v", err)
	}
	return sk
}
