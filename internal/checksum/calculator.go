package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

type Algorithm string

const (
	MD5        Algorithm = "md5"
	SHA1       Algorithm = "sha1"
	SHA256     Algorithm = "sha256"
	SHA512     Algorithm = "sha512"
	BLAKE2b256 Algorithm = "blake2b-256"
	SHA3256    Algorithm = "sha3-256"

	DefaultAlgorithm = MD5
)

var ErrFinalized = errors.New("checksum calculator is already finalized")

var constructors = map[Algorithm]func() hash.Hash{
	MD5:    md5.New,
	SHA1:   sha1.New,
	SHA256: sha256.New,
	SHA512: sha512.New,
	BLAKE2b256: func() hash.Hash {
		// New256 fails only for keys longer than 64 bytes.
		h, _ := blake2b.New256(nil)
		return h
	},
	SHA3256: sha3.New256,
}

// Algorithms lists every supported algorithm in a stable order.
var Algorithms = []Algorithm{MD5, SHA1, SHA256, SHA512, BLAKE2b256, SHA3256}

type UnknownAlgorithmError struct {
	error
}

func NewUnknownAlgorithmError(name string) UnknownAlgorithmError {
	return UnknownAlgorithmError{errors.Errorf("unknown checksum algorithm: '%s', expected one of: %v", name, Algorithms)}
}

func (err UnknownAlgorithmError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := constructors[alg]; !ok {
		return "", NewUnknownAlgorithmError(name)
	}
	return alg, nil
}

// Calculator is a running, order-sensitive digest state.
// Finalize may be called once; afterwards every call fails with ErrFinalized.
type Calculator interface {
	Algorithm() Algorithm
	Update(data []byte) error
	Finalize() (Digest, error)
	// Written returns the number of bytes fed so far.
	Written() int64
}

type hashCalculator struct {
	algorithm Algorithm
	hash      hash.Hash
	written   int64
	finalized bool
}

var _ Calculator = &hashCalculator{}

func NewCalculator(algorithm Algorithm) (Calculator, error) {
	constructor, ok := constructors[algorithm]
	if !ok {
		return nil, NewUnknownAlgorithmError(string(algorithm))
	}
	return &hashCalculator{algorithm: algorithm, hash: constructor()}, nil
}

func (calc *hashCalculator) Algorithm() Algorithm {
	return calc.algorithm
}

func (calc *hashCalculator) Update(data []byte) error {
	if calc.finalized {
		return ErrFinalized
	}
	n, err := calc.hash.Write(data)
	calc.written += int64(n)
	return err
}

func (calc *hashCalculator) Finalize() (Digest, error) {
	if calc.finalized {
		return Digest{}, ErrFinalized
	}
	calc.finalized = true
	return Digest{Algorithm: calc.algorithm, Sum: calc.hash.Sum(nil), Size: calc.written}, nil
}

func (calc *hashCalculator) Written() int64 {
	return calc.written
}

// Sum computes the digest of data in one shot.
func Sum(algorithm Algorithm, data []byte) (Digest, error) {
	calc, err := NewCalculator(algorithm)
	if err != nil {
		return Digest{}, err
	}
	if err = calc.Update(data); err != nil {
		return Digest{}, err
	}
	return calc.Finalize()
}
