package middleware

// identity.go resolves the passenger behind each request. Authentication
// lives at the gateway; this service trusts the X-Passenger-ID header it
// forwards and only validates the format.

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// HeaderPassengerID is the gateway-forwarded identity header.
const HeaderPassengerID = "X-Passenger-ID"

// PassengerIdentity reads the passenger ID header and places it in the
// Echo context under "passenger_id" for the handlers. Requests without
// a valid header are rejected with 401.
func PassengerIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderPassengerID)
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid passenger identity"})
			}
			c.Set("passenger_id", id)
			return next(c)
		}
	}
}

// passengerKey returns the passenger identity as a rate-limit key part,
// or "anon" on routes that run before the identity middleware.
func passengerKey(c echo.Context) string {
	if v := c.Get("passenger_id"); v != nil {
		if id, ok := v.(uint64); ok && id != 0 {
			return strconv.FormatUint(id, 10)
		}
	}
	return "anon"
}
