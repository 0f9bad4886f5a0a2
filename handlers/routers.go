package handlers

import (
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/middleware"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"

	"github.com/gofiber/fiber/v2"
)

// Routers are the three access levels. Public still sits behind the gateway
// token; Secured requires X-User-ID; Admin additionally requires the admin role.
type Routers struct {
	Public  fiber.Router
	Secured fiber.Router
	Admin   fiber.Router
}

func NewRouters(app *fiber.App) Routers {
	secured := app.Group("/s", middleware.UserContextMiddleware())
	return Routers{
		Public:  app,
		Secured: secured,
		Admin:   secured.Group("/admin", middleware.RequireRole(models.RoleAdmin)),
	}
}
