package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeValidCard(t *testing.T) {
	tok := NewCardTokenizer("test-secret")

	card, err := tok.Tokenize("4242 4242 4242 4242")
	require.NoError(t, err)
	assert.Equal(t, "4242", card.Last4)
	assert.Len(t, card.Fingerprint, 64)
	assert.NotContains(t, card.Fingerprint, "4242424242424242")
}

func TestTokenizeNormalizesSeparators(t *testing.T) {
	tok := NewCardTokenizer("test-secret")

	spaced, err := tok.Tokenize("4242 4242 4242 4242")
	require.NoError(t, err)
	dashed, err := tok.Tokenize("4242-4242-4242-4242")
	require.NoError(t, err)

	assert.Equal(t, spaced.Fingerprint, dashed.Fingerprint)
}

func TestTokenizeRejectsInvalidNumbers(t *testing.T) {
	tok := NewCardTokenizer("test-secret")

	cases := map[string]string{
		"too short":    "4242",
		"non numeric":  "4242abcd42424242",
		"luhn failure": "4242424242424241",
		"empty":        "",
	}

	for name, number := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tok.Tokenize(number)
			assert.ErrorIs(t, err, ErrInvalidCard)
		})
	}
}

func TestTokenizeDifferentSecretsDifferentFingerprints(t *testing.T) {
	a, err := NewCardTokenizer("secret-a").Tokenize("4242424242424242")
	require.NoError(t, err)
	b, err := NewCardTokenizer("secret-b").Tokenize("4242424242424242")
	require.NoError(t, err)

	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
}
