// Package imagesvc fetches remote creature images for the API and optionally
// scales them down, keeping resized copies in a blob store.
package imagesvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/blob"
)

// ErrImageTooLarge is joined to domain.ErrImageFetchFailed when the upstream
// body exceeds ImageConfig.MaxBytes.
var ErrImageTooLarge = errors.New("image exceeds the size limit")

// ImageService retrieves images by URL.
type ImageService interface {
	// Fetch downloads the image at url. A positive width scales it down to at
	// most that many pixels. Failures to reach the upstream are
	// domain.ErrImageFetchFailed.
	Fetch(ctx context.Context, url string, width int) (domain.Image, error)
}

// ProxyImageService implements ImageService over HTTP.
type ProxyImageService struct {
	cfg    ImageConfig
	client *http.Client
	cache  blob.Repository
	log    logging.Logger
}

var _ ImageService = (*ProxyImageService)(nil)

// NewProxyImageService creates the proxy. cache may be nil, in which case
// resized images are recomputed on every request.
func NewProxyImageService(cfg ImageConfig, client *http.Client, cache blob.Repository) *ProxyImageService {
	if client == nil {
		client = http.DefaultClient
	}

	return &ProxyImageService{
		cfg:    cfg,
		client: client,
		cache:  cache,
		log:    logging.GetLogger("svc.imagesvc.image_service"),
	}
}

func (svc *ProxyImageService) Fetch(ctx context.Context, url string, width int) (img domain.Image, err error) {
	if svc.cfg.MaxWidth > 0 && width > svc.cfg.MaxWidth {
		width = svc.cfg.MaxWidth
	}

	log := svc.log.With(logging.Group("image", "url", url, "width", width))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image fetch failed", "error", err)
		} else {
			log.DebugContext(ctx, "image fetched", "type", img.ContentType, "size", len(img.Body))
		}
	}()

	cacheKey := blob.Key(fmt.Sprintf("%s|%d", url, width))

	if width > 0 {
		if cached, ok := svc.fromCache(ctx, cacheKey); ok {
			log = log.With(logging.Group("image", "cached", true))

			return cached, nil
		}
	}

	img, err = svc.download(ctx, url)
	if err != nil {
		return domain.Image{}, err
	}

	if width <= 0 {
		return img, nil
	}

	resized, ctype, err := resizeImage(img.Body, img.ContentType, width, svc.cfg.Interpolator)
	if err != nil {
		// Serve the original rather than fail the request.
		log.WarnContext(ctx, "image resize failed", "type", img.ContentType, "error", err)

		return img, nil
	}

	img = domain.Image{Body: resized, ContentType: ctype}

	svc.toCache(ctx, cacheKey, img)

	return img, nil
}

func (svc *ProxyImageService) download(ctx context.Context, url string) (domain.Image, error) {
	if svc.cfg.ProxyTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, svc.cfg.ProxyTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Image{}, errors.Join(domain.ErrImageFetchFailed, fmt.Errorf("new request: %w", err))
	}

	resp, err := svc.client.Do(req)
	if err != nil {
		return domain.Image{}, errors.Join(domain.ErrImageFetchFailed, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Image{}, fmt.Errorf("%w: upstream status %d", domain.ErrImageFetchFailed, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if svc.cfg.MaxBytes > 0 {
		reader = io.LimitReader(resp.Body, svc.cfg.MaxBytes+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return domain.Image{}, errors.Join(domain.ErrImageFetchFailed, fmt.Errorf("read body: %w", err))
	}

	if svc.cfg.MaxBytes > 0 && int64(len(body)) > svc.cfg.MaxBytes {
		return domain.Image{}, errors.Join(domain.ErrImageFetchFailed,
			fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, svc.cfg.MaxBytes))
	}

	return domain.Image{
		Body:        body,
		ContentType: contentTypeOf(resp.Header.Get("Content-Type"), body),
	}, nil
}

func (svc *ProxyImageService) fromCache(ctx context.Context, key blob.Key) (domain.Image, bool) {
	if svc.cache == nil {
		return domain.Image{}, false
	}

	unlock, err := svc.cache.Lock(ctx, key, false)
	if err != nil {
		svc.log.WarnContext(ctx, "image cache lock failed", "error", err)

		return domain.Image{}, false
	}
	defer unlock()

	if !svc.cache.Exists(ctx, key) {
		return domain.Image{}, false
	}

	cached, err := svc.cache.Fetch(ctx, key)
	if err != nil {
		svc.log.WarnContext(ctx, "image cache read failed", "error", err)

		return domain.Image{}, false
	}

	ctype := sniffImageType(cached.Body)
	if ctype == "" {
		ctype = MIMETypeJPEG
	}

	return domain.Image{Body: cached.Body, ContentType: ctype}, true
}

func (svc *ProxyImageService) toCache(ctx context.Context, key blob.Key, img domain.Image) {
	if svc.cache == nil {
		return
	}

	unlock, err := svc.cache.Lock(ctx, key, true)
	if err != nil {
		svc.log.WarnContext(ctx, "image cache lock failed", "error", err)

		return
	}
	defer unlock()

	if err := svc.cache.Store(ctx, &blob.Blob{Key: key, Body: img.Body}); err != nil {
		svc.log.WarnContext(ctx, "image cache write failed", "error", err)
	}
}
