package media

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestPrepareImage(t *testing.T) {
	prepared, err := PrepareImage(encodePNG(t, 2048, 1024), 512)
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(prepared))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	bounds := decoded.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), 512)
	assert.LessOrEqual(t, bounds.Dy(), 512)
	// Aspect ratio preserved: 2:1 stays 2:1.
	assert.Equal(t, bounds.Dx(), bounds.Dy()*2)
}

func TestPrepareImageSmallStaysSmall(t *testing.T) {
	prepared, err := PrepareImage(encodePNG(t, 64, 64), 1024)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(prepared))
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
}

func TestPrepareImageInvalidData(t *testing.T) {
	_, err := PrepareImage([]byte("not an image"), 1024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode image")
}

func TestDisabledZoneInferrer(t *testing.T) {
	entities, err := DisabledZoneInferrer{}.InferZones(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, entities)
}
