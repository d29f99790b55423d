package authsvc

import (
	"context"
	"errors"

	"github.com/mkrupp/bestiary/internal/infra/logging"
)

// DevelopmentSecret signs tokens when no secret is configured and development
// mode is on. It is public knowledge; never use it in a deployment.
const DevelopmentSecret = "dev-secret-change-me"

// ErrNoSecret is returned when no signing secret is configured outside
// development mode.
var ErrNoSecret = errors.New("AUTH_SECRET is not set (set AUTH_DEVELOPMENT=true to use the insecure development secret)")

// SigningSecret returns the HMAC secret for cfg. An empty cfg.Secret is only
// accepted in development mode, where DevelopmentSecret is used instead.
func SigningSecret(ctx context.Context, cfg AuthConfig) ([]byte, error) {
	if cfg.Secret != "" {
		return []byte(cfg.Secret), nil
	}

	if !cfg.Development {
		return nil, ErrNoSecret
	}

	logging.GetLogger("svc.authsvc.signing_key").WarnContext(ctx,
		"using the insecure development signing secret; set AUTH_SECRET in any real deployment")

	return []byte(DevelopmentSecret), nil
}
