package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Supported Content-Encoding tokens.
const (
	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
)

// DecodeError reports a request body that could not be read or
// decompressed.
type DecodeError struct {
	// Encoding is the Content-Encoding token in effect, empty for plain reads.
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Encoding == "" {
		return fmt.Sprintf("failed to read request body: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode %s request body: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeBody reads the whole of r and decompresses it according to the
// Content-Encoding token. Only gzip and deflate are decoded; any other
// value, including an empty one, returns the raw bytes unchanged.
//
// The "deflate" token is decoded as a zlib stream. Streams without a zlib
// header are decoded as raw DEFLATE, which some clients send instead.
func DecodeBody(r io.Reader, contentEncoding string) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))
	if len(raw) == 0 {
		return raw, nil
	}

	switch encoding {
	case EncodingGzip:
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, &DecodeError{Encoding: encoding, Err: err}
		}
		defer func() { _ = zr.Close() }()
		return readAllDecoded(zr, encoding)
	case EncodingDeflate:
		if hasZlibHeader(raw) {
			zr, err := zlib.NewReader(bytes.NewReader(raw))
			if err != nil {
				return nil, &DecodeError{Encoding: encoding, Err: err}
			}
			defer func() { _ = zr.Close() }()
			return readAllDecoded(zr, encoding)
		}
		fr := flate.NewReader(bytes.NewReader(raw))
		defer func() { _ = fr.Close() }()
		return readAllDecoded(fr, encoding)
	default:
		return raw, nil
	}
}

func readAllDecoded(r io.Reader, encoding string) ([]byte, error) {
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Encoding: encoding, Err: err}
	}
	return decoded, nil
}

// hasZlibHeader checks the RFC 1950 CMF/FLG pair: compression method 8 and
// a header checksum divisible by 31.
func hasZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}
