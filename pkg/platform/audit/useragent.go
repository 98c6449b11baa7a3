package audit

import (
	"strings"

	"github.com/mssola/useragent"
)

// DescribeUserAgent reduces a raw User-Agent header to "browser version / os" for
// audit records. Empty input yields an empty string.
func DescribeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		return "bot"
	}
	name, version := ua.Browser()
	parts := make([]string, 0, 3)
	if name != "" {
		parts = append(parts, strings.TrimSpace(name+" "+version))
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}
	if ua.Mobile() {
		parts = append(parts, "mobile")
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, " / ")
}
