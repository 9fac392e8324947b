package kuro

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// signFallbackPlaintext preserves the vendor signer's behavior of returning
// the unsigned plaintext when the digest step fails. Digesting a string can
// never fail here, but the flag keeps the compatibility path testable instead
// of silently unreachable. Do not rely on this in new call sites.
var signFallbackPlaintext = true

// Sign computes the request checksum the Kuro SDK expects.
//
// Keys are taken from params excluding "sign", "market" and nil values,
// sorted bytewise, rendered as "key=value&" pairs, with the app key appended
// verbatim. The lowercase MD5 hex of that string is then run through a fixed
// byte-position swap. The scheme is the vendor's, reproduced exactly; it is
// not a generic HMAC.
func Sign(params map[string]any, appKey string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == "sign" || k == "market" || v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s&", k, paramString(params[k]))
	}
	b.WriteString(appKey)

	return md5Code(b.String())
}

// paramString renders a parameter value into the signing string: strings
// as-is, numbers and booleans as their literal text.
func paramString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// md5Code digests code and applies the SDK's byte-swapping obfuscation:
// hex characters at positions (1,13), (5,17) and (7,23) are exchanged.
// The length guard matches the vendor SDK even though an MD5 hex digest is
// always 32 characters.
func md5Code(code string) string {
	digest, ok := hexMD5(code)
	if !ok {
		if signFallbackPlaintext {
			return code
		}
		return ""
	}

	b := []byte(digest)
	if len(b) >= 23 {
		b[1], b[13] = b[13], b[1]
		b[5], b[17] = b[17], b[5]
		b[7], b[23] = b[23], b[7]
	}
	return string(b)
}

func hexMD5(s string) (string, bool) {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:]), true
}

// EncodePassword obfuscates a password for the game SDK login form.
//
// The output is a fixed permutation of the base64 encoding of the password
// bytes: two positional shuffle passes over the same buffer, starting at
// offsets 0 and 1. This is not a cipher.
func EncodePassword(password string) string {
	if password == "" {
		return ""
	}
	p := []byte(base64.StdEncoding.EncodeToString([]byte(password)))
	shuffle(p, 0)
	shuffle(p, 1)
	return string(p)
}

// shuffle swaps data[i] and data[i+2] for i stepping by 4 from start,
// stopping early once i+6 reaches the end. Both conditions match the vendor
// scheme exactly; changing either breaks parity with the SDK.
func shuffle(data []byte, start int) {
	for i := start; i < len(data); i += 4 {
		if i+2 < len(data) {
			data[i], data[i+2] = data[i+2], data[i]
		}
		if i+6 >= len(data) {
			break
		}
	}
}

// GenerateDeviceID returns a fresh random v4 UUID in canonical form.
func GenerateDeviceID() string {
	return uuid.New().String()
}

// GenerateDeviceIDUppercase returns a fresh random v4 UUID with uppercase
// hex digits, the form the game SDK uses for deviceNum.
func GenerateDeviceIDUppercase() string {
	return strings.ToUpper(uuid.New().String())
}

// EnsureDeviceID returns explicit unchanged when supplied, otherwise a fresh
// uppercase device id. A device id must stay stable across every signed call
// of one login sequence or the provider rejects the follow-up calls.
func EnsureDeviceID(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return GenerateDeviceIDUppercase()
}
