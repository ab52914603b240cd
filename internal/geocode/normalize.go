// internal/geocode/normalize.go
package geocode

import (
	"regexp"
	"strings"

	"solar-checker/internal/common/validation"
	"solar-checker/internal/models"
)

var (
	zipWithExtension = regexp.MustCompile(`^\d{5}([-\s]\d{4})?$`)
	sixDigitPin      = regexp.MustCompile(`^\d{6}$`)
	nonDigits        = regexp.MustCompile(`\D`)
)

// Normalize reduces a provider postcode to a FiveDigitZip or SixDigitPin.
// ZIP+4 keeps the leading five digits; any other shape is reduced to its
// digits and kept when five or six remain.
func Normalize(raw string) (models.PostalCodeRecord, bool) {
	clean := strings.TrimSpace(raw)

	var code string
	switch {
	case zipWithExtension.MatchString(clean):
		code = clean[:5]
	case sixDigitPin.MatchString(clean):
		code = clean
	default:
		code = nonDigits.ReplaceAllString(clean, "")
	}

	if !validation.IsAcceptablePostalCode(code) {
		return models.PostalCodeRecord{}, false
	}

	format := models.FiveDigitZip
	if len(code) == 6 {
		format = models.SixDigitPin
	}
	return models.PostalCodeRecord{Code: code, Format: format}, true
}
