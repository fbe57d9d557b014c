package providers

import (
	"net/http"
	"strings"
	"time"
)

// AuthStyle selects how a credential is attached to an outbound request
type AuthStyle string

const (
	// AuthBearer sets "Authorization: Bearer <credential>"
	AuthBearer AuthStyle = "bearer"

	// AuthHeaderPair sets a provider-specific key header plus a version header
	AuthHeaderPair AuthStyle = "header_pair"
)

// Family identifies the wire shape spoken by a provider
type Family string

const (
	// FamilyChat is the chat-completions shape (choices[0].message.content)
	FamilyChat Family = "chat"

	// FamilyMessages is the messages shape (content[0].text)
	FamilyMessages Family = "messages"
)

// Descriptor describes one provider. It is immutable once registered.
type Descriptor struct {
	// ID is the unique, stable provider key (e.g., "openai", "anthropic")
	ID string `yaml:"id" json:"id"`

	// Endpoint is the full URL requests are POSTed to
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// DefaultModel is used when the caller supplies no override
	DefaultModel string `yaml:"default_model" json:"default_model"`

	// AuthStyle selects how the credential is sent
	AuthStyle AuthStyle `yaml:"auth_style" json:"auth_style"`

	// Family selects the request/response adapter
	Family Family `yaml:"family" json:"family"`

	// APIKeyHeader carries the credential for AuthHeaderPair providers
	APIKeyHeader string `yaml:"api_key_header,omitempty" json:"api_key_header,omitempty"`

	// VersionHeader and Version are sent alongside APIKeyHeader
	VersionHeader string `yaml:"version_header,omitempty" json:"version_header,omitempty"`
	Version       string `yaml:"version,omitempty" json:"version,omitempty"`

	// ExtraHeaders are added to every request for this provider
	ExtraHeaders map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// Params holds generation parameters shared by all families
type Params struct {
	MaxTokens   int
	Temperature float64
}

// DefaultParams returns the parameters used when nothing is configured
func DefaultParams() Params {
	return Params{
		MaxTokens:   1000,
		Temperature: 0.7,
	}
}

// Request is a fully built outbound call. Body is marshaled as JSON.
type Request struct {
	URL    string
	Header http.Header
	Body   interface{}
}

// Adapter translates between the unified model and one provider family.
// Implementations must be pure: no I/O and no shared mutable state.
type Adapter interface {
	// Family returns the family this adapter speaks
	Family() Family

	// BuildRequest builds the outbound call for prompt. An empty model
	// selects the descriptor default.
	BuildRequest(desc Descriptor, credential, prompt, model string, params Params) (*Request, error)

	// ParseResponse normalizes an HTTP status and raw body into an Outcome
	ParseResponse(desc Descriptor, status int, body []byte) Outcome
}

// ErrorCategory is the reportable class of a failed provider call
type ErrorCategory string

const (
	CategoryNoCredential    ErrorCategory = "NoCredential"
	CategoryAuthError       ErrorCategory = "AuthError"
	CategoryRateLimited     ErrorCategory = "RateLimited"
	CategoryPaymentRequired ErrorCategory = "PaymentRequired"
	CategoryProviderError   ErrorCategory = "ProviderError"
	CategoryParseError      ErrorCategory = "ParseError"
	CategoryNetworkError    ErrorCategory = "NetworkError"
	CategoryTimeout         ErrorCategory = "Timeout"
)

// Completion is the payload of a successful call
type Completion struct {
	Text  string             `json:"response"`
	Model string             `json:"model"`
	Usage map[string]float64 `json:"usage"`
}

// Failure is the payload of a failed call
type Failure struct {
	Category ErrorCategory `json:"error_category"`
	Message  string        `json:"error"`
}

// Error implements the error interface
func (f *Failure) Error() string {
	return string(f.Category) + ": " + f.Message
}

// Outcome is the terminal result of one provider call. Exactly one of
// Completion and Failure is set.
type Outcome struct {
	ProviderID string
	Completion *Completion
	Failure    *Failure
	Latency    time.Duration
}

// Succeeded builds a successful outcome
func Succeeded(providerID, text, model string, usage map[string]float64) Outcome {
	if usage == nil {
		usage = map[string]float64{}
	}
	return Outcome{
		ProviderID: providerID,
		Completion: &Completion{Text: text, Model: model, Usage: usage},
	}
}

// Failed builds a failed outcome
func Failed(providerID string, category ErrorCategory, message string) Outcome {
	return Outcome{
		ProviderID: providerID,
		Failure:    &Failure{Category: category, Message: message},
	}
}

// OK reports whether the call succeeded
func (o Outcome) OK() bool {
	return o.Completion != nil
}

// Category returns the failure category, or "" on success
func (o Outcome) Category() ErrorCategory {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Category
}

// WithLatency returns a copy of o carrying the measured latency
func (o Outcome) WithLatency(d time.Duration) Outcome {
	o.Latency = d
	return o
}

// CredentialSet maps provider id to secret for one dispatch operation
type CredentialSet map[string]string

// Get returns the trimmed credential for id and whether it is present
func (c CredentialSet) Get(id string) (string, bool) {
	secret := strings.TrimSpace(c[id])
	return secret, secret != ""
}
