package geocode

import (
	"testing"

	"solar-checker/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   models.PostalCodeRecord
		wantOK bool
	}{
		{name: "plain zip", raw: "90210", want: models.PostalCodeRecord{Code: "90210", Format: models.FiveDigitZip}, wantOK: true},
		{name: "zip plus four", raw: "90210-1234", want: models.PostalCodeRecord{Code: "90210", Format: models.FiveDigitZip}, wantOK: true},
		{name: "zip plus four with space", raw: "90210 1234", want: models.PostalCodeRecord{Code: "90210", Format: models.FiveDigitZip}, wantOK: true},
		{name: "padded", raw: "  10001 ", want: models.PostalCodeRecord{Code: "10001", Format: models.FiveDigitZip}, wantOK: true},
		{name: "pin code", raw: "560001", want: models.PostalCodeRecord{Code: "560001", Format: models.SixDigitPin}, wantOK: true},
		{name: "spaced pin", raw: "560 001", want: models.PostalCodeRecord{Code: "560001", Format: models.SixDigitPin}, wantOK: true},
		{name: "prefixed zip", raw: "CA 94103", want: models.PostalCodeRecord{Code: "94103", Format: models.FiveDigitZip}, wantOK: true},
		{name: "uk postcode", raw: "SW1A 1AA", wantOK: false},
		{name: "nine digits without dash", raw: "902101234", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
