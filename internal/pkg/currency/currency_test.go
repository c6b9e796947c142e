package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCode(t *testing.T) {
	valid := []string{"EUR", "USD", "IDR", "THB", "XXX"}
	for _, code := range valid {
		assert.True(t, IsValidCode(code), code)
	}

	invalid := []string{"", "EU", "EURO", "eur", "E1R", "E R"}
	for _, code := range invalid {
		assert.False(t, IsValidCode(code), code)
	}
}

func TestExponent(t *testing.T) {
	assert.Equal(t, int32(0), Exponent("JPY"))
	assert.Equal(t, int32(2), Exponent("EUR"))
	assert.Equal(t, int32(2), Exponent("IDR"))
	assert.Equal(t, int32(3), Exponent("KWD"))
}
