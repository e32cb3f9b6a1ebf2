package media

import (
	"bytes"
	"context"
	"image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/smartduck/wabot/bot/kb"
)

// ZoneInferrer infers treatment zone entities from a photo. It shares the
// entity contract of the text extractor so inferred zones feed the same
// composer enrichment. There is exactly one production strategy; the
// experimental classifiers never reached usable quality and stay out of the
// tree.
type ZoneInferrer interface {
	// InferZones returns detected zone entities, or an empty slice when the
	// capability is disabled or nothing is recognized.
	InferZones(ctx context.Context, imageData []byte) ([]kb.DetectedEntity, error)
}

// DisabledZoneInferrer is the default strategy: no inference.
type DisabledZoneInferrer struct{}

func (DisabledZoneInferrer) InferZones(context.Context, []byte) ([]kb.DetectedEntity, error) {
	return nil, nil
}

// PrepareImage decodes a photo, downscales it to fit maxDim and re-encodes
// it as JPEG. Inferrer implementations call external services; bounding the
// payload here keeps their requests small.
func PrepareImage(data []byte, maxDim int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	if maxDim <= 0 {
		maxDim = 1024
	}
	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(jpeg.DefaultQuality)); err != nil {
		return nil, errors.Wrap(err, "encode image")
	}
	return buf.Bytes(), nil
}
