package imagesvc

import "time"

// ImageConfig holds configuration parameters for the image proxy.
type ImageConfig struct {
	// ProxyTimeout bounds a single upstream image download.
	ProxyTimeout time.Duration `env:"PROXY_TIMEOUT" default:"12s"`

	// Interpolator specifies the image scaling algorithm to use.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`

	// MaxWidth caps the width of resized images.
	MaxWidth int `env:"MAX_WIDTH" default:"2048"`

	// MaxBytes caps the size of a downloaded image.
	MaxBytes int64 `env:"MAX_BYTES" default:"16777216"`
}
