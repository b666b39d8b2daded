// handlers/admin/progression.go - Manual sweep trigger
package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MantasDr/frontas/services"
)

// TriggerSweep kicks off a full progression sweep in the background. The
// periodic worker does the same thing on its own schedule; this exists so
// operators can reconcile immediately after editing ranks or achievements.
func TriggerSweep(c *fiber.Ctx) error {
	svc := services.GetProgressionService()
	if svc == nil {
		return c.Status(500).JSON(fiber.Map{"error": "Progression service unavailable"})
	}

	go svc.RunSweepForAllUsers()

	return c.Status(202).JSON(fiber.Map{"success": true, "message": "Sweep started"})
}
