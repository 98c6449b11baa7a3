// Package exif extracts forensic metadata (GPS, capture time, camera) from
// uploaded images. Extraction never fails: missing or malformed tags simply
// leave the corresponding field empty.
package exif

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"civicproof/internal/geo"
)

// TimestampLayout is the EXIF date/time format.
const TimestampLayout = "2006:01:02 15:04:05"

// Camera describes the capturing device.
type Camera struct {
	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	Software string `json:"software,omitempty"`
}

// Metadata is the forensic record of one image. Every field is optional.
type Metadata struct {
	GPS          *geo.Point `json:"gps,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	RawTimestamp string     `json:"raw_timestamp,omitempty"`
	Camera       *Camera    `json:"camera,omitempty"`
}

// HasGPS reports whether the image carried usable GPS coordinates.
func (m Metadata) HasGPS() bool { return m.GPS != nil }

// HasTimestamp reports whether the image carried a parseable capture time.
func (m Metadata) HasTimestamp() bool { return m.Timestamp != nil }

// HoursSince returns hours elapsed between capture and now.
func (m Metadata) HoursSince(now time.Time) (float64, bool) {
	if m.Timestamp == nil {
		return 0, false
	}
	return now.Sub(*m.Timestamp).Hours(), true
}

// Stale reports whether the capture time is older than maxAge. Images without a
// timestamp are not stale; their absence is a separate signal.
func (m Metadata) Stale(now time.Time, maxAge time.Duration) bool {
	hours, ok := m.HoursSince(now)
	return ok && hours > maxAge.Hours()
}

// CameraLabel returns "make model", or "" when unknown.
func (m Metadata) CameraLabel() string {
	if m.Camera == nil {
		return ""
	}
	return strings.TrimSpace(m.Camera.Make + " " + m.Camera.Model)
}

// Extract parses EXIF tags from buf. Whole-buffer failures yield an empty record.
func Extract(buf []byte) (md Metadata) {
	defer func() {
		if recover() != nil {
			md = Metadata{}
		}
	}()

	x, err := goexif.Decode(bytes.NewReader(buf))
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return Metadata{}
	}

	md.GPS = extractGPS(x)
	md.RawTimestamp, md.Timestamp = extractTimestamp(x)
	md.Camera = extractCamera(x)
	return md
}

func extractGPS(x *goexif.Exif) *geo.Point {
	lat, ok := coordinate(x, goexif.GPSLatitude, goexif.GPSLatitudeRef)
	if !ok {
		return nil
	}
	lng, ok := coordinate(x, goexif.GPSLongitude, goexif.GPSLongitudeRef)
	if !ok {
		return nil
	}
	p := geo.Point{Lat: lat, Lng: lng}
	if p.Validate() != nil {
		return nil
	}
	return &p
}

func coordinate(x *goexif.Exif, valueField, refField goexif.FieldName) (float64, bool) {
	tag, err := x.Get(valueField)
	if err != nil {
		return 0, false
	}
	ref := stringTag(x, refField)
	return ParseDMS(describeDMS(tag), ref)
}

// describeDMS renders a GPS tag as DMS text. Rational triplets become the
// comma-separated form; ASCII values (written by some phone vendors) pass through.
func describeDMS(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		s, _ := tag.StringVal()
		return s
	}
	if tag.Count < 3 {
		return ""
	}
	parts := make([]string, 0, 3)
	for i := range 3 {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return ""
		}
		parts = append(parts, fmt.Sprintf("%d/%d", num, den))
	}
	return strings.Join(parts, ", ")
}

func extractTimestamp(x *goexif.Exif) (string, *time.Time) {
	for _, field := range []goexif.FieldName{goexif.DateTimeOriginal, goexif.DateTime} {
		raw := stringTag(x, field)
		if raw == "" {
			continue
		}
		t, err := time.Parse(TimestampLayout, raw)
		if err != nil {
			return raw, nil
		}
		return raw, &t
	}
	return "", nil
}

// extractCamera returns nil unless Make or Model is present; Software alone
// does not identify a device.
func extractCamera(x *goexif.Exif) *Camera {
	c := Camera{
		Make:  stringTag(x, goexif.Make),
		Model: stringTag(x, goexif.Model),
	}
	if c.Make == "" && c.Model == "" {
		return nil
	}
	c.Software = stringTag(x, goexif.Software)
	return &c
}

func stringTag(x *goexif.Exif, field goexif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
