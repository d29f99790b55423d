package imagesvc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeTIFF = "image/tiff"
	MIMETypeWebP = "image/webp"
)

//nolint:gochecknoglobals
var (
	imageHeaders = map[string][]string{
		MIMETypeJPEG: {"\xFF\xD8\xFF"},
		MIMETypePNG:  {"\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"},
		MIMETypeTIFF: {"\x49\x49\x2A\x00", "\x4D\x4D\x00\x2A"},
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypeTIFF: tiff.Decode,
		MIMETypePNG:  png.Decode,
		MIMETypeWebP: webp.Decode,
	}

	imageEncoders = map[string]func(io.Writer, image.Image) error{
		MIMETypeJPEG: func(w io.Writer, i image.Image) error { return jpeg.Encode(w, i, nil) },
		MIMETypeTIFF: func(w io.Writer, i image.Image) error { return tiff.Encode(w, i, nil) },
		MIMETypePNG:  png.Encode,
	}

	// encodedAs maps input types without an encoder to the type they are re-encoded as.
	encodedAs = map[string]string{
		MIMETypeWebP: MIMETypePNG,
	}

	mimeAliases = map[string]string{
		"image/jpg":   MIMETypeJPEG,
		"image/pjpeg": MIMETypeJPEG,
		"image/x-png": MIMETypePNG,
	}
)

// normalizeMIMEType strips parameters from a Content-Type value and resolves aliases.
func normalizeMIMEType(ctype string) string {
	ctype, _, _ = strings.Cut(ctype, ";")
	ctype = strings.ToLower(strings.TrimSpace(ctype))

	if alias, ok := mimeAliases[ctype]; ok {
		return alias
	}

	return ctype
}

// sniffImageType returns the image type of data from its magic bytes, or ""
// when it is not a recognised image.
func sniffImageType(data []byte) string {
	for ctype, headers := range imageHeaders {
		for _, header := range headers {
			if bytes.HasPrefix(data, []byte(header)) {
				return ctype
			}
		}
	}

	if ctype := http.DetectContentType(data); strings.HasPrefix(ctype, "image/") {
		return normalizeMIMEType(ctype)
	}

	return ""
}

// contentTypeOf picks the type of a downloaded image: the upstream header when
// it names an image, else the sniffed type, else JPEG.
func contentTypeOf(header string, data []byte) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(header)), "image/") {
		return strings.TrimSpace(header)
	}

	if ctype := sniffImageType(data); ctype != "" {
		return ctype
	}

	return MIMETypeJPEG
}

func getDecoderByType(mimeType string) (func(io.Reader) (image.Image, error), error) {
	decoder, ok := imageDecoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMIMEType, mimeType)
	}

	return decoder, nil
}

// getEncoderByType returns the encoder for mimeType and the type it produces.
func getEncoderByType(mimeType string) (func(io.Writer, image.Image) error, string, error) {
	if target, ok := encodedAs[mimeType]; ok {
		mimeType = target
	}

	encoder, ok := imageEncoders[mimeType]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedMIMEType, mimeType)
	}

	return encoder, mimeType, nil
}
