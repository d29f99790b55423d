package authsvc

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkrupp/bestiary/internal/domain"
)

// SigningAlgorithm is the only accepted "alg" header value.
const SigningAlgorithm = "HS256"

type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// SignToken encodes claims as a compact token signed with HMAC-SHA256:
// base64url(header) "." base64url(claims) "." base64url(signature), unpadded.
func SignToken(claims domain.AuthClaims, secret []byte) (string, error) {
	header, err := json.Marshal(tokenHeader{Alg: SigningAlgorithm, Typ: "JWT"})
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := encodeSegment(header) + "." + encodeSegment(payload)

	return signingInput + "." + encodeSegment(sign(signingInput, secret)), nil
}

// ValidateToken verifies a compact token:
// - it must consist of exactly three segments
// - header and payload must decode to JSON objects
// - the header algorithm must be HS256
// - the signature must match in constant time
// - now must be before the expiry.
// Returns domain.ErrInvalidAuthToken for any failure.
func ValidateToken(tokenString string, secret []byte, now time.Time) (domain.AuthClaims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return domain.AuthClaims{}, domain.ErrInvalidAuthToken
	}

	var header tokenHeader
	if err := decodeJSONSegment(parts[0], &header); err != nil {
		return domain.AuthClaims{}, errors.Join(domain.ErrInvalidAuthToken, fmt.Errorf("decode header: %w", err))
	}

	if header.Alg != SigningAlgorithm {
		return domain.AuthClaims{}, domain.ErrInvalidAuthToken
	}

	var claims domain.AuthClaims
	if err := decodeJSONSegment(parts[1], &claims); err != nil {
		return domain.AuthClaims{}, errors.Join(domain.ErrInvalidAuthToken, fmt.Errorf("decode claims: %w", err))
	}

	signature, err := decodeSegment(parts[2])
	if err != nil {
		return domain.AuthClaims{}, errors.Join(domain.ErrInvalidAuthToken, fmt.Errorf("decode signature: %w", err))
	}

	if !hmac.Equal(sign(parts[0]+"."+parts[1], secret), signature) {
		return domain.AuthClaims{}, domain.ErrInvalidAuthToken
	}

	// A token without expiry never validates.
	if claims.ExpiresAt == 0 || now.Unix() >= claims.ExpiresAt {
		return domain.AuthClaims{}, domain.ErrInvalidAuthToken
	}

	return claims, nil
}

func sign(signingInput string, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signingInput))

	return mac.Sum(nil)
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeSegment(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.Strict().DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decode segment: %w", err)
	}

	return b, nil
}

func decodeJSONSegment(s string, v any) error {
	b, err := decodeSegment(s)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal segment: %w", err)
	}

	return nil
}
