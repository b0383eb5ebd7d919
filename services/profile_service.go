package services

import (
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"game-progression-system/models"

	"github.com/gosimple/unidecode"
	"gorm.io/gorm"
)

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// XP needed to go from `level` to `level+1`: floor(base * level^1.2).
const baseXPPerLevel = 100

func xpForNextLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(float64(baseXPPerLevel) * math.Pow(float64(level), 1.2))
}

func (s *ProfileService) GetProfile(profileID string) (*models.Profile, error) {
	var prof models.Profile
	if err := s.DB.First(&prof, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &prof, nil
}

// PublicProfile is the view other players can see — identity plus bests,
// no balances.
type PublicProfile struct {
	ID                  string  `json:"id"`
	Username            string  `json:"username"`
	Level               int     `json:"level"`
	Avatar              string  `json:"avatar,omitempty"`
	HighestScore        int64   `json:"highest_score"`
	LongestSurvivalTime float64 `json:"longest_survival_time"`
	GamesPlayed         int64   `json:"games_played"`
	TotalKills          int64   `json:"total_kills"`
}

func (s *ProfileService) GetPublicProfile(profileID string) (*PublicProfile, error) {
	prof, err := s.GetProfile(profileID)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{
		ID:                  prof.ID,
		Username:            prof.Username,
		Level:               prof.Level,
		Avatar:              prof.Avatar,
		HighestScore:        prof.HighestScore,
		LongestSurvivalTime: prof.LongestSurvivalTime,
		GamesPlayed:         prof.GamesPlayed,
		TotalKills:          prof.TotalKills,
	}, nil
}

// SearchProfiles matches usernames and emails case-insensitively. Queries
// are ASCII-folded first so "Zoë" finds the profile stored as "Zoe".
func (s *ProfileService) SearchProfiles(query string, limit int) ([]PublicProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	db := s.DB.Model(&models.Profile{}).Where("is_active = ?", true).Limit(limit)
	if query != "" {
		term := "%" + strings.ToLower(unidecode.Unidecode(strings.TrimSpace(query))) + "%"
		db = db.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var profiles []models.Profile
	if err := db.Order("username ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}

	out := make([]PublicProfile, len(profiles))
	for i, p := range profiles {
		out[i] = PublicProfile{
			ID:                  p.ID,
			Username:            p.Username,
			Level:               p.Level,
			Avatar:              p.Avatar,
			HighestScore:        p.HighestScore,
			LongestSurvivalTime: p.LongestSurvivalTime,
			GamesPlayed:         p.GamesPlayed,
			TotalKills:          p.TotalKills,
		}
	}
	return out, nil
}

// AddExperience credits XP and applies level-ups until the accumulated
// total no longer covers the next level's requirement.
func (s *ProfileService) AddExperience(profileID string, xp int64, reason string) (*models.Profile, error) {
	var updated *models.Profile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var prof models.Profile
		if err := tx.First(&prof, "id = ?", profileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		prof.Experience += xp
		for prof.Experience >= int64(baseXPPerLevel)*int64(prof.Level)+xpForNextLevel(prof.Level) {
			prof.Level++
			now := time.Now()
			prof.LastLevelUpAt = &now
		}

		if err := tx.Save(&prof).Error; err != nil {
			return err
		}

		updated = &models.Profile{}
		*updated = prof

		log.Printf("🎮 XP granted: %s → XP=%d, Lvl=%d (reason: %s)", profileID, prof.Experience, prof.Level, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AdjustCoins applies a signed delta with a non-negative balance guard.
func (s *ProfileService) AdjustCoins(profileID string, delta int64) (int64, error) {
	res := s.DB.Model(&models.Profile{}).
		Where("id = ? AND coins + ? >= 0", profileID, delta).
		Update("coins", gorm.Expr("coins + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var prof models.Profile
		if err := s.DB.Select("id").First(&prof, "id = ?", profileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrProfileNotFound
			}
			return 0, err
		}
		return 0, errors.New("insufficient coins")
	}

	var prof models.Profile
	if err := s.DB.Select("coins").First(&prof, "id = ?", profileID).Error; err != nil {
		return 0, err
	}
	return prof.Coins, nil
}
