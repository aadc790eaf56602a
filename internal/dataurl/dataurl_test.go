package dataurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	original := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x01}

	encoded := Encode("image/png", original)
	assert.Contains(t, encoded, "data:image/png;base64,")

	mediaType, decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)
	assert.Equal(t, original, decoded)
}

func TestEncodeDefaultsMediaType(t *testing.T) {
	encoded := Encode("", []byte("x"))
	mediaType, _, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", mediaType)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not a data url":  "https://example.com/a.png",
		"no separator":    "data:image/png;base64",
		"not base64 flag": "data:image/png,rawbytes",
		"invalid base64":  "data:image/png;base64,@@@@",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode(input)
			assert.ErrorIs(t, err, ErrInvalidDataURL)
		})
	}
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".jpg", Ext("image/jpeg"))
	assert.Equal(t, ".png", Ext("image/png"))
	assert.Equal(t, ".bin", Ext("application/pdf"))
}
