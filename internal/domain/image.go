package domain

// ErrImageFetchFailed is returned when a remote image cannot be retrieved.
var ErrImageFetchFailed = categorized(ErrUpstream, "Unable to fetch image")

// Image is a binary image with its MIME type.
type Image struct {
	Body        []byte
	ContentType string
}
