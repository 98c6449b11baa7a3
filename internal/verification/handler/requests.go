package handler

import (
	"strconv"
	"strings"

	dErrors "civicproof/pkg/domain-errors"
	"civicproof/pkg/platform/httputil"
)

// coordinates holds the parsed live GPS fix. Absent values stay nil so the
// service reports them as missing.
type coordinates struct {
	Lat *float64 `validate:"omitempty,latitude"`
	Lng *float64 `validate:"omitempty,longitude"`
}

func parseCoordinates(rawLat, rawLng string) (coordinates, error) {
	var c coordinates
	for _, f := range []struct {
		raw string
		dst **float64
	}{{rawLat, &c.Lat}, {rawLng, &c.Lng}} {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return coordinates{}, dErrors.New(dErrors.CodeValidation, "invalid GPS coordinates")
		}
		*f.dst = &v
	}
	if err := httputil.Validator().Struct(c); err != nil {
		return coordinates{}, dErrors.New(dErrors.CodeValidation, "GPS coordinates out of valid range")
	}
	return c, nil
}

// StandardResolutionRequest is the multipart form of the standard route.
type StandardResolutionRequest struct {
	Latitude  string
	Longitude string

	lat *float64
	lng *float64
}

func (r *StandardResolutionRequest) Validate() error {
	c, err := parseCoordinates(r.Latitude, r.Longitude)
	if err != nil {
		return err
	}
	r.lat, r.lng = c.Lat, c.Lng
	return nil
}

// StrictResolutionRequest is the multipart form of the strict route.
type StrictResolutionRequest struct {
	WorkerEmail string
	Latitude    string
	Longitude   string

	lat *float64
	lng *float64
}

func (r *StrictResolutionRequest) Validate() error {
	r.WorkerEmail = strings.TrimSpace(r.WorkerEmail)
	c, err := parseCoordinates(r.Latitude, r.Longitude)
	if err != nil {
		return err
	}
	r.lat, r.lng = c.Lat, c.Lng
	return nil
}
