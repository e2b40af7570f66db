package utils

import (
	"regexp"
	"strings"
)

var (
	nonDigitRegex  = regexp.MustCompile(`\D`)
	thaiPhoneRegex = regexp.MustCompile(`^0[689]\d{8}$`)
)

// FormatPhone normalizes a phone number to the local Thai format: strips
// formatting characters and rewrites the +66 country code to a leading zero.
// FormatPhone("+66 81-234-5678") == "0812345678".
func FormatPhone(phone string) string {
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	if strings.HasPrefix(digits, "66") && len(digits) == 11 {
		return "0" + digits[2:]
	}
	return digits
}

// IsValidThaiPhone reports whether phone is a Thai mobile number in local
// format: ten digits, leading zero, mobile prefix 06/08/09.
func IsValidThaiPhone(phone string) bool {
	return thaiPhoneRegex.MatchString(phone)
}
