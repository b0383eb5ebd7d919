// handlers/profile_routes.go
package handlers

import (
	"game-progression-system/middleware"
	"game-progression-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, profileService *services.ProfileService, scoreService *services.ScoreService) {
	// 🔓 Public lookups
	app.Get("/users/search", func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "q is required"})
		}
		results, err := profileService.SearchProfiles(query, c.QueryInt("limit", 20))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "results": results})
	})

	app.Get("/users/:id", func(c *fiber.Ctx) error {
		profile, err := profileService.GetPublicProfile(c.Params("id"))
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "profile": profile})
	})

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/profile", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		profile, err := profileService.GetProfile(profileID)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "profile": profile})
	})

	secured.Get("/profile/totals", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		totals, err := scoreService.GetUserCurrentTotals(profileID)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "totals": totals})
	})

	// 🔒 Admin-only progression adjustments
	admin := secured.Group("/s/admin", middleware.RequireRole("admin"))

	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			ProfileID string `json:"profile_id"`
			Amount    int64  `json:"amount"`
			Reason    string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.ProfileID == "" || req.Amount <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "profile_id and a positive amount are required"})
		}

		profile, err := profileService.AddExperience(req.ProfileID, req.Amount, req.Reason)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"level":      profile.Level,
			"experience": profile.Experience,
		})
	})

	admin.Post("/coins/adjust", func(c *fiber.Ctx) error {
		var req struct {
			ProfileID string `json:"profile_id"`
			Delta     int64  `json:"delta"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.ProfileID == "" || req.Delta == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "profile_id and a non-zero delta are required"})
		}

		balance, err := profileService.AdjustCoins(req.ProfileID, req.Delta)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "coins": balance})
	})
}
