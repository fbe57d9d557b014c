package providers

import (
	"fmt"
	"net/http"
)

const (
	defaultAPIKeyHeader  = "x-api-key"
	defaultVersionHeader = "anthropic-version"
)

// BuildHeaders returns the headers for one call to desc: content type,
// credential according to the descriptor's auth style, then extra headers.
func BuildHeaders(desc Descriptor, credential string) (http.Header, error) {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")

	switch desc.AuthStyle {
	case AuthBearer:
		h.Set("Authorization", "Bearer "+credential)
	case AuthHeaderPair:
		keyHeader := desc.APIKeyHeader
		if keyHeader == "" {
			keyHeader = defaultAPIKeyHeader
		}
		h.Set(keyHeader, credential)
		if desc.Version != "" {
			versionHeader := desc.VersionHeader
			if versionHeader == "" {
				versionHeader = defaultVersionHeader
			}
			h.Set(versionHeader, desc.Version)
		}
	default:
		return nil, fmt.Errorf("provider %s: unsupported auth style %q", desc.ID, desc.AuthStyle)
	}

	for k, v := range desc.ExtraHeaders {
		h.Set(k, v)
	}

	return h, nil
}
