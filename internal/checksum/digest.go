package checksum

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// Digest is the immutable result of finalizing a Calculator.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
	// Size is the number of bytes the digest covers.
	Size int64
}

func (digest Digest) Hex() string {
	return hex.EncodeToString(digest.Sum)
}

// Base64 is the form S3 expects in Content-MD5.
func (digest Digest) Base64() string {
	return base64.StdEncoding.EncodeToString(digest.Sum)
}

func (digest Digest) String() string {
	return string(digest.Algorithm) + ":" + digest.Hex()
}

func (digest Digest) IsZero() bool {
	return digest.Algorithm == "" && len(digest.Sum) == 0
}

func (digest Digest) Equal(other Digest) bool {
	return digest.Algorithm == other.Algorithm && bytes.Equal(digest.Sum, other.Sum)
}

// ParseDigest reverses Digest.String. Size is not part of the textual form.
func ParseDigest(text string) (Digest, error) {
	name, sum, found := strings.Cut(text, ":")
	if !found {
		return Digest{}, errors.Errorf("malformed digest '%s': expected <algorithm>:<hex>", text)
	}
	alg, err := ParseAlgorithm(name)
	if err != nil {
		return Digest{}, err
	}
	raw, err := hex.DecodeString(sum)
	if err != nil {
		return Digest{}, errors.Wrapf(err, "malformed digest '%s'", text)
	}
	return Digest{Algorithm: alg, Sum: raw}, nil
}
