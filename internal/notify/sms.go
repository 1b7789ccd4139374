package notify

import "strings"

// NormalizePhone reduces a phone number to bare digits suitable for an
// email-to-SMS gateway. A leading country-code "1" is stripped when the
// number would otherwise be 11 digits. Numbers shorter than 10 digits
// cannot be routed and fail normalization.
func NormalizePhone(phone string) (string, bool) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) < 10 {
		return "", false
	}
	return digits, true
}

// SMSAddress derives the email-to-SMS destination for a contact's phone
// number. It fails when the gateway domain is unset or the number does not
// normalize; the caller then skips the SMS channel entirely.
func SMSAddress(phone, gatewayDomain string) (string, bool) {
	if gatewayDomain == "" {
		return "", false
	}
	digits, ok := NormalizePhone(phone)
	if !ok {
		return "", false
	}
	return digits + "@" + gatewayDomain, true
}
