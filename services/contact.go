package services

import (
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
)

const mapsBase = "https://www.google.com/maps"

// ContactLink is a WhatsApp hand-off: who to message and what to say.
type ContactLink struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// URL renders the wa.me deep link. Local 08xx numbers become 628xx.
func (c ContactLink) URL() string {
	phone := normalizePhone(c.Phone)
	if phone == "" {
		return ""
	}
	u := "https://wa.me/" + phone
	if c.Message != "" {
		u += "?text=" + url.QueryEscape(c.Message)
	}
	return u
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	return digits
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// MapSearchURL and DirectionsURL keep the literal "<lat>,<lng>" form; the
// coordinates contain only digits, '-', '.' and the comma.
func MapSearchURL(at Coordinates) string {
	return mapsBase + "/search/?api=1&query=" + at.String()
}

func DirectionsURL(origin, destination Coordinates) string {
	return mapsBase + "/dir/?api=1&origin=" + origin.String() +
		"&destination=" + destination.String() + "&travelmode=driving"
}

// NewRedemptionCode returns the code a receiver shows at hand-over.
func NewRedemptionCode() string {
	return fmt.Sprintf("CODE-%d", rand.Intn(10000))
}
