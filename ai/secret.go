package ai

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// ResolveAPIKey resolves an API-key reference to key material.
//
// Supported reference forms:
//
//	env:NAME              value of the environment variable NAME
//	keyring:service/user  secret from the OS keyring
//
// The reference is the only thing configuration ever records; the key
// itself stays in the environment or the keyring.
func ResolveAPIKey(ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "env:"):
		name := strings.TrimPrefix(ref, "env:")
		key := os.Getenv(name)
		if key == "" {
			return "", fmt.Errorf("%w: environment variable %s is not set", ErrAuth, name)
		}
		return key, nil

	case strings.HasPrefix(ref, "keyring:"):
		spec := strings.TrimPrefix(ref, "keyring:")
		service, user, ok := strings.Cut(spec, "/")
		if !ok || service == "" || user == "" {
			return "", fmt.Errorf("%w: malformed keyring reference %q", ErrAuth, ref)
		}
		key, err := keyring.Get(service, user)
		if err != nil {
			return "", fmt.Errorf("%w: keyring lookup for %s: %v", ErrAuth, ref, err)
		}
		return key, nil

	case ref == "":
		return "", fmt.Errorf("%w: no API key reference configured", ErrAuth)

	default:
		return "", fmt.Errorf("%w: unsupported API key reference %q", ErrAuth, ref)
	}
}
