package services

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LeaderboardService is the read side: ranked views over the persisted score
// streams. No write path — it only joins score tables against profiles.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

const (
	BoardScore             = "score"
	BoardLeaderboardPoints = "leaderboard_points"
	BoardSkillPoints       = "skill_points"
	BoardSurvival          = "survival"
)

const (
	TimeframeAll     = "all"
	TimeframeDaily   = "daily"
	TimeframeWeekly  = "weekly"
	TimeframeMonthly = "monthly"
)

// NormalizeBoard maps the legacy client type names onto the canonical
// stream names ("normal" → score, "leaderboard" → leaderboard_points,
// "skill" → skill_points).
func NormalizeBoard(board string) (string, error) {
	switch board {
	case BoardScore, "normal", "":
		return BoardScore, nil
	case BoardLeaderboardPoints, "leaderboard":
		return BoardLeaderboardPoints, nil
	case BoardSkillPoints, "skill":
		return BoardSkillPoints, nil
	case BoardSurvival:
		return BoardSurvival, nil
	}
	return "", fmt.Errorf("invalid leaderboard type %q", board)
}

type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	Username     string  `json:"username"`
	Level        int     `json:"level"`
	Avatar       string  `json:"avatar,omitempty"`
	Value        float64 `json:"value"`
	Score        int64   `json:"score,omitempty"`
	SurvivalTime float64 `json:"survival_time,omitempty"`
	Kills        int64   `json:"kills,omitempty"`
}

// timeframeCutoff converts a timeframe into a rolling window start.
// "daily" is the last 24 hours, not the calendar day.
func timeframeCutoff(timeframe string, now time.Time) (time.Time, bool, error) {
	switch timeframe {
	case TimeframeAll, "":
		return time.Time{}, false, nil
	case TimeframeDaily:
		return now.Add(-24 * time.Hour), true, nil
	case TimeframeWeekly:
		return now.AddDate(0, 0, -7), true, nil
	case TimeframeMonthly:
		return now.AddDate(0, -1, 0), true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid timeframe %q", timeframe)
}

// Rank produces the ordered view for one stream: strictly descending by the
// stream's metric, ties broken by earlier record time then id, dense
// 1-based ranks assigned by output position. The limit cap is the handler's
// job, not ours.
func (s *LeaderboardService) Rank(board string, limit int, timeframe string) ([]LeaderboardEntry, error) {
	board, err := NormalizeBoard(board)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	cutoff, hasCutoff, err := timeframeCutoff(timeframe, time.Now())
	if err != nil {
		return nil, err
	}

	type row struct {
		Username     string
		Level        int
		Avatar       string
		Value        float64
		Score        int64
		SurvivalTime float64
		Kills        int64
	}
	var rows []row

	switch board {
	case BoardScore:
		query := `
			SELECT p.username, p.level, p.avatar,
			       ns.score AS value, ns.score, ns.survival_time, ns.kills
			FROM normal_scores ns
			INNER JOIN profiles p ON p.id = ns.profile_id
			WHERE p.is_active = ? AND p.deleted_at IS NULL`
		args := []interface{}{true}
		if hasCutoff {
			query += ` AND ns.created_at >= ?`
			args = append(args, cutoff)
		}
		query += `
			ORDER BY ns.score DESC, ns.created_at ASC, ns.id ASC
			LIMIT ?`
		args = append(args, limit)
		if err := s.DB.Raw(query, args...).Scan(&rows).Error; err != nil {
			return nil, err
		}

	case BoardLeaderboardPoints, BoardSkillPoints:
		table := "leaderboard_scores"
		if board == BoardSkillPoints {
			table = "skill_scores"
		}
		query := `
			SELECT p.username, p.level, p.avatar,
			       MAX(sc.total_accumulated_points) AS value,
			       MAX(sc.created_at) AS last_at
			FROM ` + table + ` sc
			INNER JOIN profiles p ON p.id = sc.profile_id
			WHERE p.is_active = ? AND p.deleted_at IS NULL`
		args := []interface{}{true}
		if hasCutoff {
			query += ` AND sc.created_at >= ?`
			args = append(args, cutoff)
		}
		query += `
			GROUP BY sc.profile_id, p.username, p.level, p.avatar
			ORDER BY value DESC, last_at ASC
			LIMIT ?`
		args = append(args, limit)
		if err := s.DB.Raw(query, args...).Scan(&rows).Error; err != nil {
			return nil, err
		}

	case BoardSurvival:
		// Survival is a profile-level metric; timeframe windows don't apply.
		query := `
			SELECT username, level, avatar,
			       longest_survival_time AS value, longest_survival_time AS survival_time
			FROM profiles
			WHERE is_active = ? AND deleted_at IS NULL
			ORDER BY longest_survival_time DESC, created_at ASC, id ASC
			LIMIT ?`
		if err := s.DB.Raw(query, true, limit).Scan(&rows).Error; err != nil {
			return nil, err
		}
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:         i + 1,
			Username:     r.Username,
			Level:        r.Level,
			Avatar:       r.Avatar,
			Value:        r.Value,
			Score:        r.Score,
			SurvivalTime: r.SurvivalTime,
			Kills:        r.Kills,
		})
	}
	return entries, nil
}

// Dashboard bundles the top slice of every board for the home screen.
func (s *LeaderboardService) Dashboard(limit int) (fiber.Map, error) {
	scores, err := s.Rank(BoardScore, limit, TimeframeAll)
	if err != nil {
		return nil, err
	}
	points, err := s.Rank(BoardLeaderboardPoints, limit, TimeframeAll)
	if err != nil {
		return nil, err
	}
	survival, err := s.Rank(BoardSurvival, limit, TimeframeAll)
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"gameScores": fiber.Map{
			"leaderboard": scores,
			"type":        "Game Scores",
			"description": "Highest individual game session scores",
		},
		"leaderboardPoints": fiber.Map{
			"leaderboard": points,
			"type":        "Leaderboard Points",
			"description": "Players ranked by accumulated leaderboard points",
		},
		"survivalTimes": fiber.Map{
			"leaderboard": survival,
			"type":        "Survival Time",
			"description": "Longest survival times",
		},
	}, nil
}

// RecentScore is one line of the recent-activity feed.
type RecentScore struct {
	Username     string    `json:"username"`
	Level        int       `json:"level"`
	Score        int64     `json:"score"`
	SurvivalTime float64   `json:"survival_time"`
	Kills        int64     `json:"kills"`
	WaveReached  int       `json:"wave_reached"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecentScores lists the latest completed-session scores across all
// profiles, newest first.
func (s *LeaderboardService) RecentScores(limit int) ([]RecentScore, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []RecentScore
	query := `
		SELECT p.username, p.level,
		       ns.score, ns.survival_time, ns.kills, ns.wave_reached, ns.created_at
		FROM normal_scores ns
		INNER JOIN profiles p ON p.id = ns.profile_id
		WHERE p.is_active = ? AND p.deleted_at IS NULL
		ORDER BY ns.created_at DESC, ns.id DESC
		LIMIT ?`
	if err := s.DB.Raw(query, true, limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
