package services

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"game-progression-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreService persists the three per-session score streams and keeps the
// profile's running totals. Every profile update is a single atomic UPDATE
// (conditional or increment) so concurrent session ends for the same profile
// serialize at the storage boundary instead of racing read-then-write.
type ScoreService struct {
	DB *gorm.DB

	// WriteTimeout bounds each stream's transaction; expiry surfaces as a
	// retryable stream failure, never a fatal one.
	WriteTimeout time.Duration
}

func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{DB: db, WriteTimeout: 5 * time.Second}
}

type NormalScoreInput struct {
	Score          int64   `json:"score"`
	SurvivalTime   float64 `json:"survival_time"`
	Kills          int64   `json:"kills"`
	EnemiesSpawned int64   `json:"enemies_spawned"`
	DamageDealt    int64   `json:"damage_dealt"`
	DamageTaken    int64   `json:"damage_taken"`
	WaveReached    int     `json:"wave_reached"`
}

type PointsInput struct {
	PointsEarned float64   `json:"points_earned_this_session"`
	SurvivalTime float64   `json:"survival_time"`
	SessionStart time.Time `json:"session_start_time"`
	SessionEnd   time.Time `json:"session_end_time"`
}

// SessionOutcome carries everything the ledger needs when a session ends.
// Point values come from the caller; the fixed earning rates are stamped on
// the records as provenance only.
type SessionOutcome struct {
	Normal            NormalScoreInput
	LeaderboardPoints float64
	SkillPoints       float64
	SessionStart      time.Time
	SessionEnd        time.Time
}

const (
	StreamNormal      = "normal"
	StreamLeaderboard = "leaderboard"
	StreamSkill       = "skill"
)

// StreamResult reports one stream's write independently — a failed stream
// never blocks the others or the session's completed transition.
type StreamResult struct {
	Stream          string  `json:"stream"`
	OK              bool    `json:"ok"`
	AlreadyRecorded bool    `json:"already_recorded,omitempty"`
	Error           string  `json:"error,omitempty"`
	IsPersonalBest  bool    `json:"is_personal_best,omitempty"`
	NewTotal        float64 `json:"new_total,omitempty"`
}

type AllScoresResult struct {
	Normal      StreamResult `json:"normal"`
	Leaderboard StreamResult `json:"leaderboard"`
	Skill       StreamResult `json:"skill"`
}

func (r *AllScoresResult) AllOK() bool {
	return r.Normal.OK && r.Leaderboard.OK && r.Skill.OK
}

func (r *AllScoresResult) FailedStreams() []string {
	var failed []string
	for _, sr := range []StreamResult{r.Normal, r.Leaderboard, r.Skill} {
		if !sr.OK {
			failed = append(failed, sr.Stream)
		}
	}
	return failed
}

// SaveNormalScore writes the raw session outcome and resolves the personal
// best. The conditional UPDATE decides is_personal_best atomically: the row
// only changes when the new score strictly exceeds the stored best, so two
// racing session ends can't both claim the flag for the same value.
// The bool return reports an idempotent retry (row already existed).
func (s *ScoreService) SaveNormalScore(ctx context.Context, profileID, sessionID string, in NormalScoreInput) (*models.NormalScore, bool, error) {
	if in.WaveReached < 1 {
		in.WaveReached = 1
	}

	rec := &models.NormalScore{
		ID:             uuid.NewString(),
		ProfileID:      profileID,
		SessionID:      sessionID,
		Score:          in.Score,
		SurvivalTime:   in.SurvivalTime,
		Kills:          in.Kills,
		EnemiesSpawned: in.EnemiesSpawned,
		DamageDealt:    in.DamageDealt,
		DamageTaken:    in.DamageTaken,
		WaveReached:    in.WaveReached,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prof models.Profile
		if err := tx.Select("id").First(&prof, "id = ?", profileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		best := tx.Model(&models.Profile{}).
			Where("id = ? AND highest_score < ?", profileID, in.Score).
			Update("highest_score", in.Score)
		if best.Error != nil {
			return best.Error
		}
		rec.IsPersonalBest = best.RowsAffected > 0

		// Lifetime aggregates ride in the same transaction so an idempotent
		// retry rolls them back along with the duplicate insert.
		if err := tx.Model(&models.Profile{}).Where("id = ?", profileID).
			Updates(map[string]interface{}{
				"games_played":       gorm.Expr("games_played + 1"),
				"total_kills":        gorm.Expr("total_kills + ?", in.Kills),
				"total_play_time":    gorm.Expr("total_play_time + ?", in.SurvivalTime),
				"total_damage_dealt": gorm.Expr("total_damage_dealt + ?", in.DamageDealt),
				"total_damage_taken": gorm.Expr("total_damage_taken + ?", in.DamageTaken),
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Profile{}).
			Where("id = ? AND longest_survival_time < ?", profileID, in.SurvivalTime).
			Update("longest_survival_time", in.SurvivalTime).Error; err != nil {
			return err
		}

		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).Create(rec)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return errAlreadyRecorded
		}
		return nil
	})

	if errors.Is(err, errAlreadyRecorded) {
		var existing models.NormalScore
		if e := s.DB.WithContext(ctx).First(&existing, "session_id = ?", sessionID).Error; e != nil {
			return nil, true, nil
		}
		return &existing, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

// SaveLeaderboardScore adds this session's points to the profile's running
// leaderboard total and writes the immutable record stamped with the total
// after this session. session_id is the idempotency key: a retried call
// finds the existing row and rolls the increment back.
func (s *ScoreService) SaveLeaderboardScore(ctx context.Context, profileID, sessionID string, in PointsInput) (*models.LeaderboardScore, bool, error) {
	rec := &models.LeaderboardScore{
		ID:                      uuid.NewString(),
		ProfileID:               profileID,
		SessionID:               sessionID,
		PointsEarnedThisSession: in.PointsEarned,
		SurvivalTime:            in.SurvivalTime,
		EarningRate:             models.LeaderboardEarningRate,
		SessionStartTime:        in.SessionStart,
		SessionEndTime:          in.SessionEnd,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).Where("id = ?", profileID).
			Update("current_leaderboard_points", gorm.Expr("current_leaderboard_points + ?", in.PointsEarned))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProfileNotFound
		}

		// The increment above holds the row lock; this read sees the new total.
		var prof models.Profile
		if err := tx.Select("current_leaderboard_points").First(&prof, "id = ?", profileID).Error; err != nil {
			return err
		}
		rec.TotalAccumulatedPoints = prof.CurrentLeaderboardPoints

		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).Create(rec)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return errAlreadyRecorded
		}
		return nil
	})

	if errors.Is(err, errAlreadyRecorded) {
		var existing models.LeaderboardScore
		if e := s.DB.WithContext(ctx).First(&existing, "session_id = ?", sessionID).Error; e != nil {
			return nil, true, nil
		}
		return &existing, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

// SaveSkillScore mirrors the leaderboard stream against current_skill_points
// and additionally credits the spendable skill_points balance — the lifetime
// total and the spendable balance move together at earn time and only
// diverge when upgrades spend points.
func (s *ScoreService) SaveSkillScore(ctx context.Context, profileID, sessionID string, in PointsInput) (*models.SkillScore, bool, error) {
	rec := &models.SkillScore{
		ID:                      uuid.NewString(),
		ProfileID:               profileID,
		SessionID:               sessionID,
		PointsEarnedThisSession: in.PointsEarned,
		SurvivalTime:            in.SurvivalTime,
		EarningRate:             models.SkillEarningRate,
		SessionStartTime:        in.SessionStart,
		SessionEndTime:          in.SessionEnd,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).Where("id = ?", profileID).
			Updates(map[string]interface{}{
				"current_skill_points": gorm.Expr("current_skill_points + ?", in.PointsEarned),
				"skill_points":         gorm.Expr("skill_points + ?", int64(math.Floor(in.PointsEarned))),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProfileNotFound
		}

		var prof models.Profile
		if err := tx.Select("current_skill_points").First(&prof, "id = ?", profileID).Error; err != nil {
			return err
		}
		rec.TotalAccumulatedPoints = prof.CurrentSkillPoints
		rec.PointsAvailable = prof.CurrentSkillPoints

		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).Create(rec)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return errAlreadyRecorded
		}
		return nil
	})

	if errors.Is(err, errAlreadyRecorded) {
		var existing models.SkillScore
		if e := s.DB.WithContext(ctx).First(&existing, "session_id = ?", sessionID).Error; e != nil {
			return nil, true, nil
		}
		return &existing, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

// SaveAllScores fans out to the three streams concurrently. The streams are
// independent — no ordering between them — and each failure is collected
// rather than aborting the rest.
func (s *ScoreService) SaveAllScores(ctx context.Context, profileID, sessionID string, outcome SessionOutcome) *AllScoresResult {
	result := &AllScoresResult{
		Normal:      StreamResult{Stream: StreamNormal},
		Leaderboard: StreamResult{Stream: StreamLeaderboard},
		Skill:       StreamResult{Stream: StreamSkill},
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		wctx, cancel := context.WithTimeout(ctx, s.WriteTimeout)
		defer cancel()
		rec, already, err := s.SaveNormalScore(wctx, profileID, sessionID, outcome.Normal)
		if err != nil {
			result.Normal.Error = err.Error()
			return
		}
		result.Normal.OK = true
		result.Normal.AlreadyRecorded = already
		if rec != nil {
			result.Normal.IsPersonalBest = rec.IsPersonalBest
		}
	}()

	go func() {
		defer wg.Done()
		wctx, cancel := context.WithTimeout(ctx, s.WriteTimeout)
		defer cancel()
		rec, already, err := s.SaveLeaderboardScore(wctx, profileID, sessionID, PointsInput{
			PointsEarned: outcome.LeaderboardPoints,
			SurvivalTime: outcome.Normal.SurvivalTime,
			SessionStart: outcome.SessionStart,
			SessionEnd:   outcome.SessionEnd,
		})
		if err != nil {
			result.Leaderboard.Error = err.Error()
			return
		}
		result.Leaderboard.OK = true
		result.Leaderboard.AlreadyRecorded = already
		if rec != nil {
			result.Leaderboard.NewTotal = rec.TotalAccumulatedPoints
		}
	}()

	go func() {
		defer wg.Done()
		wctx, cancel := context.WithTimeout(ctx, s.WriteTimeout)
		defer cancel()
		rec, already, err := s.SaveSkillScore(wctx, profileID, sessionID, PointsInput{
			PointsEarned: outcome.SkillPoints,
			SurvivalTime: outcome.Normal.SurvivalTime,
			SessionStart: outcome.SessionStart,
			SessionEnd:   outcome.SessionEnd,
		})
		if err != nil {
			result.Skill.Error = err.Error()
			return
		}
		result.Skill.OK = true
		result.Skill.AlreadyRecorded = already
		if rec != nil {
			result.Skill.NewTotal = rec.TotalAccumulatedPoints
		}
	}()

	wg.Wait()

	if failed := result.FailedStreams(); len(failed) > 0 {
		log.Printf("⚠️ [LEDGER] partial score save for session %s: failed streams %v", sessionID, failed)
	}
	return result
}

// UserTotals is the profile's running totals snapshot for the client HUD.
type UserTotals struct {
	LeaderboardPoints float64 `json:"leaderboard_points"`
	SkillPoints       float64 `json:"skill_points"`
	HighestScore      int64   `json:"highest_score"`
}

func (s *ScoreService) GetUserCurrentTotals(profileID string) (*UserTotals, error) {
	var prof models.Profile
	err := s.DB.
		Select("current_leaderboard_points", "current_skill_points", "highest_score").
		First(&prof, "id = ?", profileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &UserTotals{
		LeaderboardPoints: prof.CurrentLeaderboardPoints,
		SkillPoints:       prof.CurrentSkillPoints,
		HighestScore:      prof.HighestScore,
	}, nil
}
