package generation

import (
	"strings"

	"github.com/clipdeck/clipdeck/internal/domain"
)

// apiKeyPrefix is the minimal shape an API key must have. The check is
// deliberately shallow: it catches unset and obviously pasted-wrong keys
// before any network call, nothing more.
const apiKeyPrefix = "sk-"

// ValidateAPIKey checks the credential shape. It returns a credential fault
// when the key is blank or not prefixed as an API key; such failures must
// never be retried.
func ValidateAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || !strings.HasPrefix(key, apiKeyPrefix) {
		return domain.NewFault(domain.FaultCredential, ErrMissingCredential)
	}
	return nil
}
