package cf

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly"

	"pagepdf/logger"
)

var log = logger.New("Decompress")

// DecompressResponse detects and decompresses colly response bodies that are
// compressed with gzip or Brotli. It modifies the response body in place.
//
// Call it first thing in a collector's OnResponse callback; servers that
// answer "Accept-Encoding: gzip, br" with brotli are not decoded by colly.
//
// Returns:
//   - bool: true if decompression was performed, false otherwise
//   - error: any error encountered during gzip decompression
//
// Example usage:
//
//	c.OnResponse(func(r *colly.Response) {
//	    if _, err := cf.DecompressResponse(r); err != nil {
//	        return
//	    }
//	    // Continue with normal response processing...
//	})
func DecompressResponse(r *colly.Response) (bool, error) {
	if r == nil || len(r.Body) == 0 {
		return false, nil
	}

	var encoding string
	if r.Headers != nil {
		encoding = r.Headers.Get("Content-Encoding")
	}

	originalSize := len(r.Body)
	body, decompressed, err := DecompressResponseBody(r.Body, encoding)
	if err != nil {
		return false, err
	}
	if decompressed {
		log.Debugf("%s: %d bytes -> %d bytes", r.Request.URL, originalSize, len(body))
		r.Body = body
	}
	return decompressed, nil
}

// DecompressResponseBody returns the decompressed body without touching the
// caller's slice.
//
// Gzip is recognised by its magic bytes (1f 8b). Brotli has no magic number,
// so it is attempted when contentEncoding is "br" or the first byte falls in
// 0x80-0x8f; a failed Brotli attempt means the body was plain and it is
// returned unchanged.
func DecompressResponseBody(body []byte, contentEncoding string) ([]byte, bool, error) {
	if len(body) == 0 {
		return body, false, nil
	}

	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, false, err
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, false, err
		}
		return decompressed, true, nil
	}

	if contentEncoding == "br" || (body[0] >= 0x80 && body[0] <= 0x8f) {
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return body, false, nil
		}
		return decompressed, true, nil
	}

	return body, false, nil
}
