package forms

// LicenseNumberLength is the exact length of a driver's license number
const LicenseNumberLength = 8

const licensePrefixLength = 3

// ValidateLicenseNumber checks that the value is 3 uppercase ASCII letters
// followed by 5 ASCII digits.
func ValidateLicenseNumber(value string) error {
	if len(value) != LicenseNumberLength {
		return ValidationError{Field: "license_number", Message: "License number should consist of 8 characters"}
	}
	for i := 0; i < licensePrefixLength; i++ {
		if value[i] < 'A' || value[i] > 'Z' {
			return ValidationError{Field: "license_number", Message: "First 3 characters should be uppercase letters"}
		}
	}
	for i := licensePrefixLength; i < LicenseNumberLength; i++ {
		if value[i] < '0' || value[i] > '9' {
			return ValidationError{Field: "license_number", Message: "Last 5 characters should be digits"}
		}
	}
	return nil
}
