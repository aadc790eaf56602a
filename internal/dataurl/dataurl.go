// Package dataurl is the explicit encode/decode boundary for images queued
// offline: a celebration draft carries its photo as a self-contained
// RFC 2397 data URL until replay uploads the bytes and gets a durable
// storage path back.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const prefix = "data:"

var ErrInvalidDataURL = errors.New("invalid data URL")

// Encode builds a base64 data URL from a media type and raw bytes.
func Encode(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return prefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode parses a base64 data URL back into its media type and raw bytes.
// Parsing is strict: a queued celebration with a corrupt image must fail
// its replay attempt visibly instead of uploading garbage.
func Decode(s string) (mediaType string, data []byte, err error) {
	if !strings.HasPrefix(s, prefix) {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}

	meta, payload, found := strings.Cut(s[len(prefix):], ",")
	if !found {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrInvalidDataURL)
	}

	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 data URLs are supported", ErrInvalidDataURL)
	}
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mediaType, data, nil
}

// Ext guesses a file extension for common image media types, used to name
// uploaded objects.
func Ext(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
