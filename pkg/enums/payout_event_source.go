package enums

import "fmt"

// PayoutEventSource records which code path appended a payout event.
type PayoutEventSource string

const (
	PayoutEventSourceOrchestrator PayoutEventSource = "orchestrator"
	PayoutEventSourceProviderSync PayoutEventSource = "provider_sync"
	PayoutEventSourceWebhook      PayoutEventSource = "provider_webhook"
)

var validPayoutEventSources = []PayoutEventSource{
	PayoutEventSourceOrchestrator,
	PayoutEventSourceProviderSync,
	PayoutEventSourceWebhook,
}

// String implements fmt.Stringer.
func (p PayoutEventSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutEventSource.
func (p PayoutEventSource) IsValid() bool {
	for _, candidate := range validPayoutEventSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutEventSource converts raw input into a PayoutEventSource.
func ParsePayoutEventSource(value string) (PayoutEventSource, error) {
	for _, candidate := range validPayoutEventSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout event source %q", value)
}
