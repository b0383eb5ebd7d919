// handlers/leaderboard_routes.go
package handlers

import (
	"game-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

const maxLeaderboardLimit = 100

func leaderboardLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 {
		limit = 50
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	return limit
}

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService) {
	rank := func(board string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			entries, err := leaderboardService.Rank(board, leaderboardLimit(c), c.Query("timeframe"))
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			return c.JSON(fiber.Map{
				"success":     true,
				"type":        board,
				"timeframe":   c.Query("timeframe", services.TimeframeAll),
				"leaderboard": entries,
			})
		}
	}

	app.Get("/leaderboard/scores", rank(services.BoardScore))
	app.Get("/leaderboard/leaderboard-points", rank(services.BoardLeaderboardPoints))
	app.Get("/leaderboard/skill-points", rank(services.BoardSkillPoints))
	app.Get("/leaderboard/survival", rank(services.BoardSurvival))

	app.Get("/leaderboard/all", func(c *fiber.Ctx) error {
		dashboard, err := leaderboardService.Dashboard(leaderboardLimit(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "leaderboards": dashboard})
	})

	app.Get("/leaderboard/recent", func(c *fiber.Ctx) error {
		scores, err := leaderboardService.RecentScores(leaderboardLimit(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "recent_scores": scores})
	})

	// Legacy path: clients pass normal/leaderboard/skill as the type param.
	app.Get("/leaderboards/:type?", func(c *fiber.Ctx) error {
		board, err := services.NormalizeBoard(c.Params("type"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return rank(board)(c)
	})
}
