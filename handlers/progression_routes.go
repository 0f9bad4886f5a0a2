// handlers/progression_routes.go
package handlers

import (
	"errors"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/middleware"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/services"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(r Routers, points *services.PointsService) {
	app, secured := r.Public, r.Secured

	app.Get("/tiers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": points.Tiers})
	})

	app.Get("/badges", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": points.Badges})
	})

	// Creates the progression record on first visit, like the profile screen expects.
	secured.Get("/user/points", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		st, err := points.Standing(c.UserContext(), userID)
		if errors.Is(err, store.ErrNotFound) {
			if _, err = points.EnsureActor(c.UserContext(), userID, middleware.PrimaryRole(c), middleware.UserName(c)); err != nil {
				return fail(c, "failed to create progress record", err)
			}
			st, err = points.Refresh(c.UserContext(), userID)
		}
		if err != nil {
			return fail(c, "failed to load points", err)
		}
		return c.JSON(st)
	})

	secured.Post("/user/points/refresh", func(c *fiber.Ctx) error {
		st, err := points.Refresh(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return fail(c, "failed to refresh points", err)
		}
		return c.JSON(st)
	})

	r.Admin.Post("/points/refresh", func(c *fiber.Ctx) error {
		n, err := points.RefreshAll(c.UserContext())
		if err != nil {
			return fail(c, "refresh failed", err)
		}
		return c.JSON(fiber.Map{"refreshed": n})
	})
}
