package imagesvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

var (
	// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
	ErrUnknownInterpolator = errors.New("unknown interpolator")

	// ErrUnsupportedMIMEType is returned when trying to process an unsupported image format.
	ErrUnsupportedMIMEType = errors.New("unsupported MIME type")
)

//nolint:gochecknoglobals
var (
	// interpolMap maps interpolator names to their implementations.
	// Supported values: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear".
	interpolMap = map[string]draw.Interpolator{
		"nearestneighbor": draw.NearestNeighbor,
		"catmullrom":      draw.CatmullRom,
		"bilinear":        draw.BiLinear,
		"approxbilinear":  draw.ApproxBiLinear,
	}
)

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolMap[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}

	return interpol, nil
}

// resizeImage scales an image down to width while keeping its aspect ratio and
// returns the encoded result with its MIME type. Images already narrower than
// width are returned unchanged.
func resizeImage(data []byte, ctype string, width int, interpolator string) ([]byte, string, error) {
	ctype = normalizeMIMEType(ctype)

	interpol, err := getInterpolatorByName(interpolator)
	if err != nil {
		return nil, "", fmt.Errorf("get interpolator: %w", err)
	}

	decoder, err := getDecoderByType(ctype)
	if err != nil {
		return nil, "", fmt.Errorf("get decoder: %w", err)
	}

	original, err := decoder(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	bounds := original.Bounds()
	if bounds.Dx() <= width {
		return data, ctype, nil
	}

	height := max(1, int(float64(bounds.Dy())*float64(width)/float64(bounds.Dx())))

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	interpol.Scale(bitmap, bitmap.Bounds(), original, bounds, draw.Over, nil)

	encoder, outType, err := getEncoderByType(ctype)
	if err != nil {
		return nil, "", fmt.Errorf("get encoder: %w", err)
	}

	var buf bytes.Buffer
	if err := encoder(&buf, bitmap); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), outType, nil
}
