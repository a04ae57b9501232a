package rotation

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lowerCharset       = "abcdefghijklmnopqrstuvwxyz"
	upperCharset       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitCharset       = "0123456789"
	punctuationCharset = "!@#$%^&*()-_=+[]{}|;:,.<>?"
	usernameCharset    = "abcdefghijklmnopqrstuvwxyz0123456789"

	minGeneratedLength = 8
)

var allCharset = lowerCharset + upperCharset + digitCharset + punctuationCharset

// Generate produces a cryptographically random password of at least
// minGeneratedLength characters (length is raised silently if smaller). By
// construction the result contains at least two uppercase letters, two
// lowercase letters, two digits, and one punctuation character; remaining
// positions are drawn uniformly from the union of those alphabets. The
// character positions are then shuffled by a cryptographically random
// permutation so the guaranteed characters are not predictably placed.
func Generate(length int) (string, error) {
	if length < minGeneratedLength {
		length = minGeneratedLength
	}

	guaranteed := []string{
		upperCharset, upperCharset,
		lowerCharset, lowerCharset,
		digitCharset, digitCharset,
		punctuationCharset,
	}

	out := make([]byte, length)
	for i, class := range guaranteed {
		c, err := randomByteFrom(class)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	for i := len(guaranteed); i < length; i++ {
		c, err := randomByteFrom(allCharset)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	if err := shuffle(out); err != nil {
		return "", err
	}

	return string(out), nil
}

// GenerateUsername returns a string of total length max(8, length) starting
// with prefix (default "u" if empty) followed by uniformly random
// alphanumeric characters. The prefix is preserved verbatim; no punctuation
// leaks into the result. A prefix that is already at least max(8, length)
// characters long is returned unchanged, so the result can then be longer.
func GenerateUsername(prefix string, length int) (string, error) {
	if prefix == "" {
		prefix = "u"
	}
	if length < minGeneratedLength {
		length = minGeneratedLength
	}
	if len(prefix) >= length {
		return prefix, nil
	}

	suffixLen := length - len(prefix)
	suffix := make([]byte, suffixLen)
	for i := range suffix {
		c, err := randomByteFrom(usernameCharset)
		if err != nil {
			return "", err
		}
		suffix[i] = c
	}

	return prefix + string(suffix), nil
}

func randomByteFrom(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random byte: %w", err)
	}
	return charset[n.Int64()], nil
}

// shuffle performs a cryptographically random Fisher-Yates shuffle in place.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to shuffle: %w", err)
		}
		j := jBig.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
