package marker

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	realNumberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	hexColorPattern   = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)
)

// IsRealNumber reports whether value is a plain decimal number such as
// "-23.55" or "46".
func IsRealNumber(value string) bool {
	return realNumberPattern.MatchString(value)
}

// IsHexColor reports whether color is "#RGB" or "#RRGGBB".
func IsHexColor(color string) bool {
	return hexColorPattern.MatchString(color)
}

// ValidationError describes the first field that failed validation. Message
// is suitable for showing to the user as-is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type requiredField struct {
	name  string
	value string
}

// Validate checks f in a fixed order: required fields, then coordinates,
// then color. requireCountry adds country and currency to the required set.
func Validate(f Fields, requireCountry bool) error {
	required := []requiredField{
		{"name", f.Name},
		{"latitude", f.Latitude},
		{"longitude", f.Longitude},
		{"markerColor", f.MarkerColor},
	}
	if requireCountry {
		required = append(required, requiredField{"country", f.Country}, requiredField{"currency", f.Currency})
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.name, Message: "Please fill in all fields."}
		}
	}

	if !IsRealNumber(f.Latitude) {
		return &ValidationError{Field: "latitude", Message: "Latitude must be a valid number."}
	}
	if !IsRealNumber(f.Longitude) {
		return &ValidationError{Field: "longitude", Message: "Longitude must be a valid number."}
	}
	if !IsHexColor(f.MarkerColor) {
		return &ValidationError{Field: "markerColor", Message: "Color must be a hex value such as #FF0000."}
	}
	return nil
}
