package apikey

import (
	"strings"
	"unicode"

	"github.com/KathiravanBCS/nexa-ai/pkg/domain"
)

// minKeyLength is a sanity floor: real Gemini keys are well above it, while
// truncated or placeholder values fall below.
const minKeyLength = 20

// Resolver picks the credential for a model call. Precedence: request
// override, then the primary server key, then the secondary public key.
type Resolver struct {
	primary   string
	secondary string
}

func NewResolver(primary, secondary string) *Resolver {
	return &Resolver{
		primary:   primary,
		secondary: secondary,
	}
}

func (r *Resolver) Resolve(override string) (string, error) {
	for _, candidate := range []string{override, r.primary, r.secondary} {
		if key := Sanitize(candidate); usable(key) {
			return key, nil
		}
	}
	return "", domain.ErrMissingCredential
}

// Sanitize strips quote characters and whitespace, the usual artifacts of a
// pasted credential.
func Sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		if r == '\'' || r == '"' || r == '`' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, key)
}

func usable(key string) bool {
	return len(key) >= minKeyLength
}

// Mask renders a key for diagnostics without revealing it.
func Mask(key string) string {
	if len(key) < 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
