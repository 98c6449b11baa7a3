package exif

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// symbolDMS matches `40° 26' 46.302"` with optional trailing hemisphere letter.
var symbolDMS = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*°\s*(\d+(?:\.\d+)?)\s*['′]\s*(\d+(?:\.\d+)?)\s*(?:"|″|'')?\s*([NSEWnsew])?\s*$`)

// ParseDMS converts a degrees/minutes/seconds value to signed decimal degrees.
// Two encodings are accepted: `40° 26' 46.302"` and `40, 26, 46.302` (each component
// may also be a rational such as `46302/1000`). ref "S" or "W" negates the result;
// a hemisphere letter embedded in value is honoured when ref is empty.
// ok is false when neither encoding parses.
func ParseDMS(value, ref string) (float64, bool) {
	var parts [3]float64
	hemisphere := strings.ToUpper(strings.TrimSpace(ref))

	if m := symbolDMS.FindStringSubmatch(value); m != nil {
		for i := range 3 {
			v, err := strconv.ParseFloat(m[i+1], 64)
			if err != nil {
				return 0, false
			}
			parts[i] = v
		}
		if hemisphere == "" {
			hemisphere = strings.ToUpper(m[4])
		}
	} else {
		fields := strings.Split(value, ",")
		if len(fields) != 3 {
			return 0, false
		}
		for i, f := range fields {
			v, ok := parseComponent(f)
			if !ok {
				return 0, false
			}
			parts[i] = v
		}
	}

	if parts[1] >= 60 || parts[2] >= 60 {
		return 0, false
	}
	decimal := parts[0] + parts[1]/60 + parts[2]/3600
	if math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return 0, false
	}
	if hemisphere == "S" || hemisphere == "W" {
		decimal = -decimal
	}
	return decimal, true
}

func parseComponent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if num, den, found := strings.Cut(s, "/"); found {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, n >= 0 && d > 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
