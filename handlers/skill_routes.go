// handlers/skill_routes.go
package handlers

import (
	"game-progression-system/middleware"
	"game-progression-system/services"
	"game-progression-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupSkillRoutes(app *fiber.App, skillService *services.SkillService) {
	// 🔓 Public catalog views
	app.Get("/skills", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "skills": skillService.ListSkills()})
	})

	app.Get("/skills/categories", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "categories": skillService.SkillsByCategory()})
	})

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/skills/user", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		view, err := skillService.GetUserSkills(profileID)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "user_skills": view})
	})

	secured.Post("/skills/upgrade", func(c *fiber.Ctx) error {
		profileID := c.Locals("user_id").(string)

		var req struct {
			SkillID string `json:"skill_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.SkillID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "skill_id is required"})
		}

		result, err := skillService.UpgradeSkill(profileID, req.SkillID)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "upgrade": result})
	})

	// 🔒 Admin-only catalog management
	admin := secured.Group("/s/admin", middleware.RequireRole("admin"))

	admin.Post("/skills", func(c *fiber.Ctx) error {
		var req services.CreateSkillInput
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}
		if req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}

		skill, err := skillService.CreateSkill(req)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "skill": skill})
	})

	admin.Post("/skills/:skill_id/icon", func(c *fiber.Ctx) error {
		skillSlug := c.Params("skill_id")

		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "icon file is required"})
		}

		iconURL, err := utils.UploadSkillIcon(fileHeader, skillSlug)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if err := skillService.SetSkillIcon(skillSlug, iconURL); err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"success": true, "icon": iconURL})
	})
}
