// Package anonymizer scrubs personal data from usage events before they are
// buffered, in line with the product's LGPD posture.
package anonymizer

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/fisioflow/mentorship-api/internal/domain"
)

// Anonymizer replaces direct identifiers in usage events with
// non-reversible values. The IP address is hashed with a fixed salt so
// distinct-caller analytics survive without retaining the address itself;
// the user agent is dropped entirely.
type Anonymizer struct {
	enabled bool
	salt    []byte
}

// New creates an Anonymizer. When disabled, Scrub leaves events untouched.
func New(enabled bool, salt string) *Anonymizer {
	return &Anonymizer{enabled: enabled, salt: []byte(salt)}
}

// Scrub anonymizes the event in place.
func (a *Anonymizer) Scrub(event *domain.UsageEvent) {
	if !a.enabled {
		return
	}

	if event.IPAddress != "" {
		sum := sha256.Sum256(append(a.salt, event.IPAddress...))
		event.IPAddress = hex.EncodeToString(sum[:8])
	}
	event.UserAgent = ""
	event.Anonymized = true
}
