package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrInvalidCard = errors.New("invalid card number")

// CardToken is what the payment layer is allowed to persist. The raw
// card number never leaves this package.
type CardToken struct {
	Last4       string
	Fingerprint string
}

// CardTokenizer reduces a raw card number to a storable token.
type CardTokenizer interface {
	Tokenize(cardNumber string) (*CardToken, error)
}

type hmacTokenizer struct {
	key []byte
}

// NewCardTokenizer creates a tokenizer keyed with a process-level secret.
func NewCardTokenizer(secret string) CardTokenizer {
	return &hmacTokenizer{key: []byte(secret)}
}

func (t *hmacTokenizer) Tokenize(cardNumber string) (*CardToken, error) {
	digits := strings.ReplaceAll(strings.ReplaceAll(cardNumber, " ", ""), "-", "")
	if len(digits) < 12 || len(digits) > 19 {
		return nil, ErrInvalidCard
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, ErrInvalidCard
		}
	}
	if !luhnValid(digits) {
		return nil, ErrInvalidCard
	}

	mac := hmac.New(sha256.New, t.key)
	mac.Write([]byte(digits))

	return &CardToken{
		Last4:       digits[len(digits)-4:],
		Fingerprint: hex.EncodeToString(mac.Sum(nil)),
	}, nil
}

func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
