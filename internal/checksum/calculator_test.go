package checksum

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownVectors(t *testing.T) {
	cases := []struct {
		alg      Algorithm
		input    string
		expected string
	}{
		{MD5, "", "d41d8cd98f00b204e9800998ecf8427e"},
		{MD5, "abc", "900150983cd24fb0d6963f7d28e17f72"},
		{SHA256, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, c := range cases {
		digest, err := Sum(c.alg, []byte(c.input))
		require.NoError(t, err)
		assert.Equal(t, c.expected, digest.Hex(), "%s(%q)", c.alg, c.input)
		assert.Equal(t, int64(len(c.input)), digest.Size)
	}
}

func TestChunkingDoesNotChangeDigest(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 1000)
	for _, alg := range Algorithms {
		expected, err := Sum(alg, payload)
		require.NoError(t, err)

		for _, step := range []int{1, 7, 64, 4096, len(payload)} {
			calc, err := NewCalculator(alg)
			require.NoError(t, err)
			for offset := 0; offset < len(payload); offset += step {
				end := offset + step
				if end > len(payload) {
					end = len(payload)
				}
				require.NoError(t, calc.Update(payload[offset:end]))
			}
			actual, err := calc.Finalize()
			require.NoError(t, err)
			assert.True(t, expected.Equal(actual), "%s with step %d", alg, step)
		}
	}
}

func TestFinalizeIsOneShot(t *testing.T) {
	calc, err := NewCalculator(MD5)
	require.NoError(t, err)
	require.NoError(t, calc.Update([]byte("abc")))

	_, err = calc.Finalize()
	require.NoError(t, err)

	assert.ErrorIs(t, calc.Update([]byte("def")), ErrFinalized)
	_, err = calc.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm(" SHA256 ")
	require.NoError(t, err)
	assert.Equal(t, SHA256, alg)

	_, err = ParseAlgorithm("crc32")
	assert.IsType(t, UnknownAlgorithmError{}, err)
}

func TestDigestStringRoundTrip(t *testing.T) {
	digest, err := Sum(SHA256, []byte("abc"))
	require.NoError(t, err)

	parsed, err := ParseDigest(digest.String())
	require.NoError(t, err)
	assert.True(t, digest.Equal(parsed))

	_, err = ParseDigest("nocolon")
	assert.Error(t, err)
	_, err = ParseDigest("md5:zz")
	assert.Error(t, err)
}

func TestStateSnapshotContinuesDigest(t *testing.T) {
	for _, alg := range []Algorithm{MD5, SHA1, SHA256, SHA512, BLAKE2b256} {
		calc, err := NewCalculator(alg)
		require.NoError(t, err)
		require.NoError(t, calc.Update([]byte("abc")))

		state, err := MarshalState(calc)
		require.NoError(t, err)

		restored, err := RestoreCalculator(alg, state, calc.Written())
		require.NoError(t, err)
		require.NoError(t, restored.Update([]byte("def")))
		actual, err := restored.Finalize()
		require.NoError(t, err)

		expected, err := Sum(alg, []byte("abcdef"))
		require.NoError(t, err)
		assert.True(t, expected.Equal(actual), string(alg))
		assert.Equal(t, int64(6), actual.Size)
	}
}

func TestStateOfFinalizedCalculator(t *testing.T) {
	calc, err := NewCalculator(MD5)
	require.NoError(t, err)
	_, err = calc.Finalize()
	require.NoError(t, err)

	_, err = MarshalState(calc)
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestReaderAndWriterWithChecksum(t *testing.T) {
	readCalc, err := NewCalculator(MD5)
	require.NoError(t, err)
	reader := CreateReaderWithChecksum(strings.NewReader("abcdef"), readCalc)

	var sink bytes.Buffer
	writeCalc, err := NewCalculator(SHA256)
	require.NoError(t, err)
	writer := CreateWriterWithChecksum(&sink, writeCalc)

	_, err = io.Copy(writer, reader)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	assert.Equal(t, "abcdef", sink.String())

	md5Digest, err := readCalc.Finalize()
	require.NoError(t, err)
	expectedMD5 := md5.Sum([]byte("abcdef"))
	assert.Equal(t, expectedMD5[:], md5Digest.Sum)

	shaDigest, err := writeCalc.Finalize()
	require.NoError(t, err)
	expectedSHA := sha256.Sum256([]byte("abcdef"))
	assert.Equal(t, expectedSHA[:], shaDigest.Sum)
}
