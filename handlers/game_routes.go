// handlers/game_routes.go
package handlers

import (
	"errors"

	"game-progression-system/middleware"
	"game-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

// errorStatus maps expected service errors onto HTTP statuses; anything
// unrecognized is a storage fault.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrSkillNotFound):
		return fiber.StatusNotFound
	}
	var upgradeErr *services.InvalidUpgradeError
	if errors.As(err, &upgradeErr) {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func SetupGameRoutes(app *fiber.App, sessionService *services.SessionService, scoreService *services.ScoreService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/session/start", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		var req struct {
			GameMode string `json:"game_mode"`
		}
		_ = c.BodyParser(&req) // empty body means default mode

		result, err := sessionService.StartSession(profileID, req.GameMode)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"session_id": result.SessionID,
			"profile_id": result.ProfileID,
			"message":    "Game session started successfully",
		})
	})

	secured.Post("/progress/save", func(c *fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
			services.ProgressUpdate
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.SessionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
		}

		if _, err := sessionService.SaveProgress(req.SessionID, req.ProgressUpdate); err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Progress saved successfully"})
	})

	secured.Post("/session/end", func(c *fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
			services.EndSessionInput
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.SessionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
		}

		result, err := sessionService.EndSession(c.Context(), req.SessionID, req.EndSessionInput)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}

		// Partial stream failures still end the session; the caller sees
		// them enumerated per stream.
		return c.JSON(fiber.Map{
			"success":    true,
			"session_id": result.SessionID,
			"profile_id": result.ProfileID,
			"scores":     result.Scores,
			"message":    "Game session ended",
		})
	})

	secured.Get("/session/active", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		session, err := sessionService.GetActiveSession(profileID)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "active_session": session})
	})

	secured.Get("/stats", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		stats, err := sessionService.GetUserStats(profileID)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "stats": stats})
	})

	// Individual stream writes — used by clients recovering from a partial
	// score-save failure on session end.
	secured.Post("/scores/normal", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		var req struct {
			SessionID string                    `json:"session_id"`
			ScoreData services.NormalScoreInput `json:"score_data"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		rec, already, err := scoreService.SaveNormalScore(c.Context(), profileID, req.SessionID, req.ScoreData)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"success":          true,
			"normal_score":     rec,
			"already_recorded": already,
		})
	})

	secured.Post("/scores/leaderboard", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		var req struct {
			SessionID string               `json:"session_id"`
			Data      services.PointsInput `json:"leaderboard_data"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		rec, already, err := scoreService.SaveLeaderboardScore(c.Context(), profileID, req.SessionID, req.Data)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"success":           true,
			"leaderboard_score": rec,
			"already_recorded":  already,
		})
	})

	secured.Post("/scores/skill", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		var req struct {
			SessionID string               `json:"session_id"`
			Data      services.PointsInput `json:"skill_data"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		rec, already, err := scoreService.SaveSkillScore(c.Context(), profileID, req.SessionID, req.Data)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"success":          true,
			"skill_score":      rec,
			"already_recorded": already,
		})
	})
}
