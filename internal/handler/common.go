package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// errNoPassenger is returned when the identity middleware did not place
// a passenger ID in the request context.
var errNoPassenger = errors.New("no passenger identity")

// getPassengerID extracts the passenger ID set by the identity
// middleware.  All booking and waitlist handlers require it; requests
// without one were not routed through the gateway and are rejected.
func getPassengerID(c echo.Context) (uint64, error) {
	v := c.Get("passenger_id")
	if v == nil {
		return 0, errNoPassenger
	}
	id, ok := v.(uint64)
	if !ok || id == 0 {
		return 0, errNoPassenger
	}
	return id, nil
}

// pathID parses a numeric path parameter, rejecting zero and malformed
// values.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
