package currency

// IsValidCode reports whether code has the ISO-4217 shape: exactly three
// uppercase ASCII letters. No registry lookup is performed.
func IsValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Exponent returns the number of decimal digits used when rendering an
// amount of minor units as a major-unit string.
func Exponent(code string) int32 {
	switch code {
	case "JPY", "KRW", "VND":
		return 0
	case "BHD", "IQD", "JOD", "KWD", "OMR", "TND":
		return 3
	default:
		return 2
	}
}
