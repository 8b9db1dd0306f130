package app

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// JWTSecretKey is the configuration key of the token signing secret.
const JWTSecretKey = "auth.jwt.secret"

// generatedSecretBytes keeps a generated signing secret above the length the security
// posture report asks for.
const generatedSecretBytes = 48

// ApplyRuntimeDefaults fills secrets the configuration left empty and reports which keys
// were generated. A generated token secret lives only as long as the process, so tokens
// minted elsewhere will not validate against it.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	generated := map[string]bool{}
	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := randomSecret(generatedSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", JWTSecretKey, err)
		}
		cfg.Auth.JWT.Secret = secret
		generated[JWTSecretKey] = true
	}
	return generated, nil
}

// randomSecret returns n random bytes encoded as unpadded URL-safe base64.
func randomSecret(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("secret length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
