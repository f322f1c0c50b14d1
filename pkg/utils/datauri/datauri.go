// Package datauri converts between self-contained image data URIs and their
// MIME type and base64 payload.
package datauri

import (
	"encoding/base64"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	scheme    = "data:"
	separator = ";base64,"
)

// ErrInvalidFormat is returned when a URI does not carry the ";base64," separator
// or its payload is not valid base64.
var ErrInvalidFormat = goerr.New("invalid data URI format")

// Encode builds a data URI from a MIME type and an already base64 encoded payload.
func Encode(mimeType, payload string) string {
	return scheme + mimeType + separator + payload
}

// Decode splits a data URI into its MIME type and base64 payload.
func Decode(uri string) (mimeType, payload string, err error) {
	head, payload, found := strings.Cut(uri, separator)
	if !found {
		return "", "", goerr.Wrap(ErrInvalidFormat, "separator not found", goerr.V("length", len(uri)))
	}

	return strings.TrimPrefix(head, scheme), payload, nil
}

// EncodeBytes builds a data URI from raw bytes.
func EncodeBytes(mimeType string, data []byte) string {
	return Encode(mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeBytes decodes a data URI and its base64 payload into raw bytes.
func DecodeBytes(uri string) (string, []byte, error) {
	mimeType, payload, err := Decode(uri)
	if err != nil {
		return "", nil, err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, goerr.Wrap(ErrInvalidFormat, "payload is not base64",
			goerr.V("mime_type", mimeType),
			goerr.V("cause", err.Error()))
	}

	return mimeType, data, nil
}
