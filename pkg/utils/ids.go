package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateOrderNumber returns the customer-facing reference, e.g.
// GM-20250314-4F9A1C.
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "GM-" + now.UTC().Format("20060102") + "-" + suffix
}
