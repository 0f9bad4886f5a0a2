package handlers

import (
	"strconv"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/middleware"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/services"

	"github.com/gofiber/fiber/v2"
)

func SetupClaimRoutes(r Routers, claims *services.ClaimService) {
	secured := r.Secured

	// ?as=receiver (default), provider or courier
	secured.Get("/claims", func(c *fiber.Ctx) error {
		limit, offset := pagination(c)
		f := models.ClaimFilter{Limit: limit, Offset: offset}
		userID := middleware.UserID(c)
		switch c.Query("as", "receiver") {
		case "receiver":
			f.ReceiverID = userID
		case "provider":
			f.ProviderID = userID
		case "courier":
			f.CourierID = userID
		default:
			return badRequest(c, "as must be receiver, provider or courier")
		}
		if s := c.Query("status"); s != "" {
			f.Statuses = []models.ClaimStatus{models.ClaimStatus(s)}
		}

		list, err := claims.List(c.UserContext(), f)
		if err != nil {
			return fail(c, "failed to list claims", err)
		}
		return c.JSON(fiber.Map{"data": list})
	})

	secured.Get("/claims/:id", func(c *fiber.Ctx) error {
		claim, err := claims.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, "claim not found", err)
		}
		userID := middleware.UserID(c)
		isCourier := claim.CourierID != nil && *claim.CourierID == userID
		if userID != claim.ReceiverID && userID != claim.ProviderID && !isCourier && !middleware.HasRole(c, models.RoleAdmin) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.JSON(claim)
	})

	secured.Get("/claims/:id/contacts", func(c *fiber.Ctx) error {
		var from *services.Coordinates
		if lat, lng := c.Query("lat"), c.Query("lng"); lat != "" && lng != "" {
			la, err1 := strconv.ParseFloat(lat, 64)
			ln, err2 := strconv.ParseFloat(lng, 64)
			if err1 != nil || err2 != nil {
				return badRequest(c, "invalid lat/lng")
			}
			from = &services.Coordinates{Lat: la, Lng: ln}
		}
		contacts, mapURL, err := claims.Contacts(c.UserContext(), c.Params("id"), middleware.UserID(c), from)
		if err != nil {
			return fail(c, "failed to load contacts", err)
		}
		return c.JSON(fiber.Map{"contacts": contacts, "map_url": mapURL})
	})

	secured.Post("/claims/:id/complete", func(c *fiber.Ctx) error {
		claim, err := claims.Complete(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return fail(c, "claim not completed", err)
		}
		return c.JSON(claim)
	})

	secured.Post("/claims/:id/cancel", func(c *fiber.Ctx) error {
		claim, err := claims.Cancel(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return fail(c, "claim not cancelled", err)
		}
		return c.JSON(claim)
	})

	secured.Post("/claims/:id/review", func(c *fiber.Ctx) error {
		var body struct {
			Rating int      `json:"rating"`
			Text   string   `json:"text"`
			Media  []string `json:"media"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
		claim, err := claims.Review(c.UserContext(), c.Params("id"), middleware.UserID(c), body.Rating, body.Text, body.Media)
		if err != nil {
			return fail(c, "review not saved", err)
		}
		return c.JSON(claim)
	})

	secured.Post("/claims/:id/report", func(c *fiber.Ctx) error {
		var body struct {
			Reason      string `json:"reason"`
			Description string `json:"description"`
			EvidenceURL string `json:"evidence_url"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
		claim, err := claims.Report(c.UserContext(), c.Params("id"), middleware.UserID(c), body.Reason, body.Description, body.EvidenceURL)
		if err != nil {
			return fail(c, "report not saved", err)
		}
		return c.JSON(claim)
	})

	// 🛵 Volunteer mission board
	secured.Get("/missions", func(c *fiber.Ctx) error {
		limit, offset := pagination(c)
		list, err := claims.OpenMissions(c.UserContext(), limit, offset)
		if err != nil {
			return fail(c, "failed to list missions", err)
		}
		return c.JSON(fiber.Map{"data": list})
	})

	secured.Post("/missions/:id/assign", func(c *fiber.Ctx) error {
		claim, err := claims.AssignCourier(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return fail(c, "mission not assigned", err)
		}
		return c.JSON(claim)
	})

	secured.Post("/missions/:id/advance", func(c *fiber.Ctx) error {
		claim, err := claims.AdvanceCourier(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return fail(c, "mission not advanced", err)
		}
		return c.JSON(claim)
	})
}
