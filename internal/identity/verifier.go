package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/desertthunder/moodring/internal/models"
)

const providerName = "google.com"

// TokenVerifier turns a raw ID token into an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*models.Identity, error)
}

// OIDCVerifier validates ID tokens against the provider's signing keys.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(v *oidc.IDTokenVerifier) *OIDCVerifier {
	return &OIDCVerifier{verifier: v}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*models.Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id_token verification failed: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("id_token claims parse failed: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("id_token missing subject")
	}

	return &models.Identity{
		ID:          claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Provider:    providerName,
		PhotoURL:    claims.Picture,
	}, nil
}
