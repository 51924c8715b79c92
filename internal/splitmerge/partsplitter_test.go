package splitmerge

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getSample(size int) io.Reader {
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		out[i] = byte(i)
	}
	return bytes.NewReader(out)
}

func testParts(t *testing.T, splitter *PartSplitter, size int, partSize int) int {
	var idx byte = 0
	parts := 0
	for {
		part, err := splitter.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		parts++

		data, err := io.ReadAll(part)
		assert.NoError(t, err)
		assert.LessOrEqual(t, len(data), partSize)

		for _, val := range data {
			assert.Equal(t, idx, val)
			idx += 1
		}
	}

	assert.Equal(t, byte(size), idx)
	return parts
}

func TestPartSplitterUnevenTail(t *testing.T) {
	splitter, err := NewPartSplitter(getSample(39), 11)
	require.NoError(t, err)
	assert.Equal(t, 4, testParts(t, splitter, 39, 11))
}

func TestPartSplitterExactMultiple(t *testing.T) {
	splitter, err := NewPartSplitter(getSample(33), 11)
	require.NoError(t, err)
	assert.Equal(t, 3, testParts(t, splitter, 33, 11))
}

func TestPartSplitterSinglePart(t *testing.T) {
	splitter, err := NewPartSplitter(getSample(11), 39)
	require.NoError(t, err)
	assert.Equal(t, 1, testParts(t, splitter, 11, 39))
}

func TestPartSplitterEmptyStreamYieldsOneEmptyPart(t *testing.T) {
	splitter, err := NewPartSplitter(getSample(0), 11)
	require.NoError(t, err)
	assert.Equal(t, 1, testParts(t, splitter, 0, 11))
}

func TestPartSplitterDiscardsUnreadRemainder(t *testing.T) {
	splitter, err := NewPartSplitter(getSample(10), 4)
	require.NoError(t, err)

	first, err := splitter.Next()
	require.NoError(t, err)
	buf := make([]byte, 1)
	_, err = first.Read(buf)
	require.NoError(t, err)

	second, err := splitter.Next()
	require.NoError(t, err)
	data, err := io.ReadAll(second)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5, 6, 7}, data)
}

func TestPartSplitterSkip(t *testing.T) {
	splitter, err := NewPartSplitter(getSample(10), 4)
	require.NoError(t, err)
	require.NoError(t, splitter.Skip(2))

	part, err := splitter.Next()
	require.NoError(t, err)
	data, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, []byte{8, 9}, data)
	assert.Equal(t, 3, splitter.Parts())

	_, err = splitter.Next()
	assert.Equal(t, io.EOF, err)
}

func TestPartSplitterSkipPastEnd(t *testing.T) {
	splitter, err := NewPartSplitter(getSample(4), 4)
	require.NoError(t, err)
	assert.Error(t, splitter.Skip(2))
}

func TestPartSplitterRejectsNonPositiveSize(t *testing.T) {
	_, err := NewPartSplitter(getSample(4), 0)
	assert.Error(t, err)
}
