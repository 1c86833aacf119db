package commit

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// magicPrefix is prepended to every plaintext before encryption and is
// the Decrypter's acceptance test for a successful decryption.
const magicPrefix = "AC2:"

const nonceSize = 16

// encryptName implements the wire ciphertext format: nonce (16 bytes)
// || body, where body is "AC2:"+name XORed against a keystream derived
// as HMAC-SHA256(key=ASCII(keyInt), msg=nonce), repeated to cover the
// plaintext length.
func encryptName(keyDecimal string, name string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("commit: generating nonce: %w", err)
	}

	keystream := hmacStream(keyDecimal, nonce, len(magicPrefix)+len(name))
	plaintext := append([]byte(magicPrefix), []byte(name)...)

	body := make([]byte, len(plaintext))
	for i, b := range plaintext {
		body[i] = b ^ keystream[i]
	}

	out := append(append([]byte{}, nonce...), body...)
	return hex.EncodeToString(out), nil
}

// randomCiphertext produces the "decline"/non-member ciphertext: 16
// plain random bytes, the length of a bare nonce. It is shorter than a
// real encryption, which carries a body of 4+len(name) bytes.
func randomCiphertext() (string, error) {
	buf := make([]byte, nonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("commit: generating noise ciphertext: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// decryptName attempts to recover a name from ciphertextHex using the
// given key. It returns ("", false) on any failure: truncated input,
// non-UTF8 output, or a missing magic prefix — never an error.
// Malformed input always rejects the candidate, never raises.
func decryptName(keyDecimal string, ciphertextHex string) (string, bool) {
	data, err := hex.DecodeString(ciphertextHex)
	if err != nil || len(data) < nonceSize {
		return "", false
	}
	nonce, body := data[:nonceSize], data[nonceSize:]

	keystream := hmacStream(keyDecimal, nonce, len(body))
	plain := make([]byte, len(body))
	for i, b := range body {
		plain[i] = b ^ keystream[i]
	}

	if !utf8.Valid(plain) {
		return "", false
	}
	s := string(plain)
	if len(s) < len(magicPrefix) || s[:len(magicPrefix)] != magicPrefix {
		return "", false
	}
	return s[len(magicPrefix):], true
}

// hmacStream derives an HMAC-SHA256 keystream, repeated (truncated) to
// cover exactly n bytes.
func hmacStream(keyDecimal string, nonce []byte, n int) []byte {
	mac := hmac.New(sha256.New, []byte(keyDecimal))
	mac.Write(nonce)
	block := mac.Sum(nil)

	out := make([]byte, n)
	for i := range out {
		out[i] = block[i%len(block)]
	}
	return out
}
