package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/services"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"

	"github.com/gofiber/fiber/v2"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&services.QualityRejectedError{Threshold: services.QualityThreshold}, fiber.StatusUnprocessableEntity},
		{&services.StockError{DonationID: "d1", Requested: 3, Available: 1}, fiber.StatusConflict},
		{&services.TransitionError{Entity: "claim", From: "completed", Event: "cancel"}, fiber.StatusConflict},
		{fmt.Errorf("%w: stock of donation d1 changed", store.ErrConflict), fiber.StatusConflict},
		{fmt.Errorf("%w: quantity", services.ErrInvalidInput), fiber.StatusBadRequest},
		{services.ErrForbidden, fiber.StatusForbidden},
		{store.ErrNotFound, fiber.StatusNotFound},
		{errors.New("disk full"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
