package secret_test

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himarplupi/bot-himarpl/internal/secret"
)

func TestDerive(t *testing.T) {
	sum := sha512.Sum512([]byte("123:abc:himarpl_bot:s3cr3t"))
	want := hex.EncodeToString(sum[:])

	got := secret.Derive("123:abc", "himarpl_bot", "s3cr3t")
	assert.Equal(t, want, got)
	assert.Len(t, got, 128)
	assert.Equal(t, got, secret.Derive("123:abc", "himarpl_bot", "s3cr3t"), "derivation must be deterministic")
}

func TestDerive_InputSensitive(t *testing.T) {
	inputs := [][3]string{
		{"token", "bot", "secret"},
		{"token2", "bot", "secret"},
		{"token", "bot2", "secret"},
		{"token", "bot", "secret2"},
		{"bot", "token", "secret"},
		{"token:bot", "", "secret"},
	}

	seen := make(map[string][3]string, len(inputs))
	for _, in := range inputs {
		got := secret.Derive(in[0], in[1], in[2])
		prev, dup := seen[got]
		require.Falsef(t, dup, "collision between %v and %v", prev, in)
		seen[got] = in
	}
}

func TestVerify(t *testing.T) {
	expected := secret.Derive("token", "bot", "secret")

	tests := []struct {
		name     string
		expected string
		got      string
		want     bool
	}{
		{name: "match", expected: expected, got: expected, want: true},
		{name: "mismatch", expected: expected, got: secret.Derive("token", "bot", "other"), want: false},
		{name: "missing_header", expected: expected, got: "", want: false},
		{name: "prefix", expected: expected, got: expected[:64], want: false},
		{name: "empty_expected", expected: "", got: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secret.Verify(tt.expected, tt.got))
		})
	}
}
