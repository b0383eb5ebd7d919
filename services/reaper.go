// services/reaper.go
package services

import (
	"context"
	"log"
	"time"

	"game-progression-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartSessionReaper ends sessions whose clients stopped reporting
// progress. An abandoned session is completed with its last reported
// counters so the ledger still records whatever the player earned.
func (s *SessionService) StartSessionReaper(staleAfter time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: sweep in-progress sessions gone quiet
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.ReapStaleSessions(context.Background(), staleAfter)
		}),
	)
}

// ReapStaleSessions force-ends every in-progress session with no update
// since the cutoff. Returns how many sessions were ended.
func (s *SessionService) ReapStaleSessions(ctx context.Context, staleAfter time.Duration) int {
	cutoff := time.Now().Add(-staleAfter)
	var sessions []models.GameSession
	err := s.DB.Where("status = ? AND updated_at <= ?", models.SessionInProgress, cutoff).
		Find(&sessions).Error
	if err != nil {
		log.Printf("[Reaper] DB error: %v", err)
		return 0
	}

	reaped := 0
	for _, sess := range sessions {
		_, err := s.EndSession(ctx, sess.ID, EndSessionInput{
			FinalScore:              sess.Score,
			LeaderboardPointsEarned: sess.LeaderboardPointsEarned,
			SkillPointsEarned:       sess.SkillPointsEarned,
			SurvivalTime:            sess.SurvivalTime,
			Kills:                   sess.Kills,
			EnemiesSpawned:          sess.EnemiesSpawned,
			DamageDealt:             sess.DamageDealt,
			DamageTaken:             sess.DamageTaken,
			WaveReached:             sess.WaveReached,
			EndReason:               models.EndReasonAbandoned,
		})
		if err != nil {
			log.Printf("[Reaper] Failed to end stale session %s: %v", sess.ID, err)
			continue
		}
		reaped++
		log.Printf("✅ Reaped abandoned session: %s (profile %s)", sess.ID, sess.ProfileID)
	}
	return reaped
}
