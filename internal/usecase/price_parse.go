package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var priceDigitsPattern = regexp.MustCompile(`[\d,.]+`)

// ParsePriceCents reads a localized market price such as "$1,234.56" or
// "1.234,56€". A comma after the last period marks a comma decimal.
func ParsePriceCents(raw string) (int64, bool) {
	match := priceDigitsPattern.FindString(raw)
	if match == "" {
		return 0, false
	}

	cleaned := match
	if comma := strings.Index(match, ","); comma >= 0 && comma > strings.LastIndex(match, ".") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false
	}
	return int64(math.Round(value * 100)), true
}
