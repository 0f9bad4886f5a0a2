package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/middleware"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/services"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	maxPhotos     = 5
	maxPhotoBytes = 8 << 20
)

func SetupDonationRoutes(r Routers, donations *services.DonationService, claims *services.ClaimService) {
	app, secured := r.Public, r.Secured

	// 🔓 Public catalog — gateway auth only
	app.Get("/donations", func(c *fiber.Ctx) error {
		limit, offset := pagination(c)
		items, err := donations.ListAvailable(c.UserContext(), limit, offset)
		if err != nil {
			return fail(c, "failed to list donations", err)
		}
		return c.JSON(fiber.Map{"data": items})
	})

	app.Get("/donations/:id", func(c *fiber.Ctx) error {
		item, err := donations.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, "donation not found", err)
		}
		if !services.VisibleToReceivers(item, time.Now()) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "donation not found"})
		}
		return c.JSON(item)
	})

	// 🔐 Secured
	secured.Post("/donations", func(c *fiber.Ctx) error {
		sub, err := parseSubmission(c)
		if err != nil {
			return badRequest(c, err.Error())
		}
		sub.ProviderID = middleware.UserID(c)

		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "multipart form with photos is required")
		}
		files := form.File["photos"]
		if len(files) == 0 {
			return badRequest(c, "at least one photo is required")
		}
		if len(files) > maxPhotos {
			return badRequest(c, "too many photos")
		}
		uploads, err := utils.ReadImages(files, maxPhotoBytes)
		if err != nil {
			return badRequest(c, err.Error())
		}
		images := make([]services.AuditImage, 0, len(uploads))
		for _, u := range uploads {
			images = append(images, services.AuditImage{MIMEType: u.ContentType, Data: u.Data})
		}

		item, err := donations.Submit(c.UserContext(), sub, images)
		if err != nil {
			return fail(c, "donation not published", err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	})

	secured.Get("/donations/mine", func(c *fiber.Ctx) error {
		limit, offset := pagination(c)
		items, err := donations.ListByProvider(c.UserContext(), middleware.UserID(c), limit, offset)
		if err != nil {
			return fail(c, "failed to list donations", err)
		}
		return c.JSON(fiber.Map{"data": items})
	})

	secured.Get("/donations/:id/contact", func(c *fiber.Ctx) error {
		contact, err := donations.Contact(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, "failed to load contact", err)
		}
		return c.JSON(contact)
	})

	secured.Post("/donations/:id/claims", func(c *fiber.Ctx) error {
		var body struct {
			Quantity int    `json:"quantity"`
			Method   string `json:"method"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
		claim, item, err := claims.Create(c.UserContext(), c.Params("id"), middleware.UserID(c), body.Quantity, models.FulfillmentMethod(body.Method))
		if err != nil {
			return fail(c, "claim not created", err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"claim":              claim,
			"remaining_quantity": item.CurrentQuantity,
			"donation_status":    item.Status,
		})
	})

	// 🛡️ Admin moderation
	r.Admin.Patch("/donations/:id/status", func(c *fiber.Ctx) error {
		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "invalid request body")
		}
		item, err := donations.Moderate(c.UserContext(), c.Params("id"), models.DonationStatus(body.Status), middleware.UserID(c))
		if err != nil {
			return fail(c, "status not changed", err)
		}
		return c.JSON(item)
	})
}

func parseSubmission(c *fiber.Ctx) (services.Submission, error) {
	sub := services.Submission{
		Name:            strings.TrimSpace(c.FormValue("name")),
		Description:     c.FormValue("description"),
		Ingredients:     c.FormValue("ingredients"),
		Unit:            c.FormValue("unit"),
		PackagingType:   c.FormValue("packaging_type"),
		StorageLocation: c.FormValue("storage_location"),
		DeliveryMethod:  models.DeliveryMethod(c.FormValue("delivery_method")),
		Address:         c.FormValue("address"),
	}

	var err error
	if sub.Quantity, err = strconv.Atoi(c.FormValue("quantity")); err != nil {
		return sub, errField("quantity")
	}
	if sub.WeightGram, err = optionalFloat(c.FormValue("weight_gram")); err != nil {
		return sub, errField("weight_gram")
	}
	if sub.Latitude, err = optionalFloat(c.FormValue("latitude")); err != nil {
		return sub, errField("latitude")
	}
	if sub.Longitude, err = optionalFloat(c.FormValue("longitude")); err != nil {
		return sub, errField("longitude")
	}

	times := []struct {
		field string
		dst   **time.Time
	}{
		{"prepared_at", &sub.PreparedAt},
		{"expires_at", &sub.ExpiresAt},
		{"distribution_start", &sub.DistributionStart},
		{"distribution_end", &sub.DistributionEnd},
	}
	for _, tf := range times {
		v := strings.TrimSpace(c.FormValue(tf.field))
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return sub, errField(tf.field)
		}
		*tf.dst = &t
	}
	return sub, nil
}

type fieldError string

func (e fieldError) Error() string { return "invalid " + string(e) }

func errField(name string) error { return fieldError(name) }

func optionalFloat(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}
