package relay

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Encoding tags how the payload of a Chunk has to be decoded before hashing.
// The tag itself travels downstream untouched.
type Encoding string

const (
	EncodingBuffer  Encoding = "buffer"
	EncodingUTF8    Encoding = "utf8"
	EncodingASCII   Encoding = "ascii"
	EncodingLatin1  Encoding = "latin1"
	EncodingBinary  Encoding = "binary"
	EncodingHex     Encoding = "hex"
	EncodingBase64  Encoding = "base64"
	EncodingUTF16LE Encoding = "utf16le"
	EncodingUCS2    Encoding = "ucs2"
)

// Chunk is one unit of data as delivered by the surrounding stream.
// Stages never modify Data.
type Chunk struct {
	Data     []byte
	Encoding Encoding
}

func NewChunk(data []byte) Chunk {
	return Chunk{Data: data, Encoding: EncodingBuffer}
}

func NewStringChunk(text string, encoding Encoding) Chunk {
	return Chunk{Data: []byte(text), Encoding: encoding}
}

// Bytes returns the raw bytes the chunk stands for.
// For raw encodings the returned slice aliases Data.
func (chunk Chunk) Bytes() ([]byte, error) {
	switch normalizeEncoding(chunk.Encoding) {
	case EncodingBuffer, EncodingUTF8:
		return chunk.Data, nil
	case EncodingLatin1:
		return decodeLatin1(chunk.Data)
	case EncodingHex:
		raw := make([]byte, hex.DecodedLen(len(chunk.Data)))
		n, err := hex.Decode(raw, chunk.Data)
		if err != nil {
			return nil, errors.Wrap(err, "invalid hex chunk")
		}
		return raw[:n], nil
	case EncodingBase64:
		raw := make([]byte, base64.StdEncoding.DecodedLen(len(chunk.Data)))
		n, err := base64.StdEncoding.Decode(raw, chunk.Data)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base64 chunk")
		}
		return raw[:n], nil
	case EncodingUTF16LE:
		return encodeUTF16LE(chunk.Data)
	default:
		return nil, errors.Errorf("unknown chunk encoding '%s'", chunk.Encoding)
	}
}

func normalizeEncoding(encoding Encoding) Encoding {
	switch Encoding(strings.ToLower(string(encoding))) {
	case "", EncodingBuffer:
		return EncodingBuffer
	case EncodingUTF8, "utf-8":
		return EncodingUTF8
	case EncodingLatin1, EncodingBinary, EncodingASCII:
		return EncodingLatin1
	case EncodingHex:
		return EncodingHex
	case EncodingBase64:
		return EncodingBase64
	case EncodingUTF16LE, "utf-16le", EncodingUCS2, "ucs-2":
		return EncodingUTF16LE
	default:
		return encoding
	}
}

// decodeLatin1 keeps the low byte of every code point of the UTF-8 text.
func decodeLatin1(text []byte) ([]byte, error) {
	raw := make([]byte, 0, len(text))
	for offset := 0; offset < len(text); {
		r, size := utf8.DecodeRune(text[offset:])
		if r == utf8.RuneError && size <= 1 {
			return nil, errors.Errorf("invalid utf-8 at byte %d of latin1 chunk", offset)
		}
		raw = append(raw, byte(r))
		offset += size
	}
	return raw, nil
}

func encodeUTF16LE(text []byte) ([]byte, error) {
	if !utf8.Valid(text) {
		return nil, errors.New("invalid utf-8 in utf16le chunk")
	}
	units := utf16.Encode([]rune(string(text)))
	raw := make([]byte, 0, 2*len(units))
	for _, unit := range units {
		raw = append(raw, byte(unit), byte(unit>>8))
	}
	return raw, nil
}
