package salute

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Credential is the decoded SDK key pair: project id plus the EC P-384
// signing key used for ES384 assertions. Immutable after parsing.
type Credential struct {
	ProjectID string
	KeyID     string

	signKey *ecdsa.PrivateKey
}

type sdkKeyBlob struct {
	ProjectID string `json:"projectId"`
	Key       jwk    `json:"key"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d"`
}

// ParseCredential decodes the base64 JSON blob {projectId, key: <JWK>}
// supplied via SDK_KEY. Any missing or malformed part yields a ConfigError.
func ParseCredential(encoded string) (*Credential, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, &ConfigError{Reason: "empty credential blob"}
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &ConfigError{Reason: "credential blob is not valid base64", Err: err}
	}

	var blob sdkKeyBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, &ConfigError{Reason: "credential blob is not valid json", Err: err}
	}

	if blob.ProjectID == "" {
		return nil, &ConfigError{Reason: "missing projectId"}
	}
	if blob.Key.Kid == "" {
		return nil, &ConfigError{Reason: "missing key id (kid)"}
	}
	if blob.Key.Kty != "EC" {
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported key type %q", blob.Key.Kty)}
	}
	if blob.Key.Crv != "P-384" {
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported curve %q", blob.Key.Crv)}
	}

	x, err := jwkInt(blob.Key.X)
	if err != nil {
		return nil, &ConfigError{Reason: "bad x coordinate", Err: err}
	}
	y, err := jwkInt(blob.Key.Y)
	if err != nil {
		return nil, &ConfigError{Reason: "bad y coordinate", Err: err}
	}
	d, err := jwkInt(blob.Key.D)
	if err != nil {
		return nil, &ConfigError{Reason: "bad private scalar", Err: err}
	}

	curve := elliptic.P384()
	if !curve.IsOnCurve(x, y) {
		return nil, &ConfigError{Reason: "public point is not on P-384"}
	}

	return &Credential{
		ProjectID: blob.ProjectID,
		KeyID:     blob.Key.Kid,
		signKey: &ecdsa.PrivateKey{
			PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
			D:         d,
		},
	}, nil
}

// jwkInt decodes a base64url (unpadded) JWK field into a big integer.
func jwkInt(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
