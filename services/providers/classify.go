package providers

import (
	"fmt"
	"net/http"
)

// maxDetailChars bounds how much of a raw error body is echoed back
const maxDetailChars = 200

// ClassifyStatus maps a non-200 response to a failed outcome
func ClassifyStatus(providerID string, status int, body []byte) Outcome {
	var category ErrorCategory
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		category = CategoryAuthError
	case http.StatusTooManyRequests:
		category = CategoryRateLimited
	case http.StatusPaymentRequired:
		category = CategoryPaymentRequired
	default:
		category = CategoryProviderError
	}

	return Failed(providerID, category,
		fmt.Sprintf("%s API error: %d: %s", providerID, status, Truncate(string(body), maxDetailChars)))
}

// ParseFailure builds the outcome for a 200 response whose body has an
// unexpected shape
func ParseFailure(providerID string, err error) Outcome {
	return Failed(providerID, CategoryParseError,
		fmt.Sprintf("%s returned an unexpected response: %v", providerID, err))
}

// Truncate returns at most the first n characters of s. n <= 0 disables
// truncation.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// NumericUsage keeps the numeric members of a decoded usage object
func NumericUsage(raw map[string]interface{}) map[string]float64 {
	usage := make(map[string]float64, len(raw))
	for k, v := range raw {
		if n, ok := v.(float64); ok {
			usage[k] = n
		}
	}
	return usage
}
