package kuro

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignKnownAnswer(t *testing.T) {
	// Signing string is "a=1&b=2&k": keys sorted, app key appended.
	got := Sign(map[string]any{"b": 2, "a": "1"}, "k")
	require.Equal(t, "c05fc8936a90e4fc4382321447aee757", got)
}

func TestSignExcludesReservedAndNil(t *testing.T) {
	base := Sign(map[string]any{"b": 2, "a": "1"}, "k")

	withNoise := Sign(map[string]any{
		"b":      2,
		"a":      "1",
		"sign":   "stale-value",
		"market": "appstore",
		"token":  nil,
	}, "k")

	require.Equal(t, base, withNoise)
}

func TestSignDeterministic(t *testing.T) {
	params := map[string]any{
		"email":     "user@example.com",
		"deviceNum": "ABC",
		"__e__":     1,
		"bind":      true,
	}
	first := Sign(params, "secret")
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Sign(params, "secret"))
	}
}

func TestSignValueRendering(t *testing.T) {
	// Numbers and booleans enter the signing string as their literal text,
	// so the string forms must sign identically.
	asLiterals := Sign(map[string]any{"n": 42, "b": true}, "k")
	asStrings := Sign(map[string]any{"n": "42", "b": "true"}, "k")
	require.Equal(t, asStrings, asLiterals)
}

func TestSignAppKeyChangesDigest(t *testing.T) {
	params := map[string]any{"a": "1"}
	require.NotEqual(t, Sign(params, "key-one"), Sign(params, "key-two"))
}

func TestMD5CodeSwapsPositions(t *testing.T) {
	const input = "a=1&b=2&k"
	sum := md5.Sum([]byte(input))
	plain := hex.EncodeToString(sum[:])

	swapped := md5Code(input)
	require.Len(t, swapped, 32)

	for _, pair := range [][2]int{{1, 13}, {5, 17}, {7, 23}} {
		assert.Equal(t, plain[pair[0]], swapped[pair[1]])
		assert.Equal(t, plain[pair[1]], swapped[pair[0]])
	}

	// Everything outside the swapped positions is untouched.
	touched := map[int]bool{1: true, 13: true, 5: true, 17: true, 7: true, 23: true}
	for i := 0; i < 32; i++ {
		if !touched[i] {
			assert.Equal(t, plain[i], swapped[i], "position %d", i)
		}
	}
}

func TestEncodePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{name: "empty", password: "", want: ""},
		{name: "typical", password: "password123", want: "FzcGdvc3QxcmM=Mj"},
		{name: "short", password: "hunter2", want: "VuaHVydG==Mg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, EncodePassword(tt.password))
		})
	}
}

func TestEncodePasswordIsPermutationOfBase64(t *testing.T) {
	// The obfuscation only reorders bytes of the base64 form.
	encoded := EncodePassword("correct horse battery staple")
	plain := "Y29ycmVjdCBob3JzZSBiYXR0ZXJ5IHN0YXBsZQ=="

	require.Equal(t, sortedBytes(plain), sortedBytes(encoded))
	require.NotEqual(t, plain, encoded)
}

func sortedBytes(s string) []byte {
	b := []byte(s)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return b
}

func TestEnsureDeviceID(t *testing.T) {
	require.Equal(t, "PINNED", EnsureDeviceID("PINNED"))

	generated := EnsureDeviceID("")
	require.NotEmpty(t, generated)

	_, err := uuid.Parse(generated)
	require.NoError(t, err)

	// Uppercase canonical form.
	for _, r := range generated {
		if r >= 'a' && r <= 'z' {
			t.Fatalf("device id %q contains lowercase hex", generated)
		}
	}

	require.NotEqual(t, generated, EnsureDeviceID(""))
}
