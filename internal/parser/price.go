package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var priceNoise = regexp.MustCompile(`[^\d,.]`)

// ParsePrice converts display text such as "1 234,50 ₽" into a number.
// Everything but digits, commas and dots is dropped and commas become
// decimal points. Text that leaves no parseable number yields nil.
func ParsePrice(text string) *float64 {
	cleaned := priceNoise.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return nil
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &value
}
