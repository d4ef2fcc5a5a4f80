package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"communityevents/internal/domain"
)

// Provider endpoints. Userinfo resolves the token to an identity; the
// tokeninfo/debug_token endpoints tell us which app the token was issued to.
const (
	googleUserinfoURL     = "https://www.googleapis.com/oauth2/v3/userinfo"
	googleTokeninfoURL    = "https://oauth2.googleapis.com/tokeninfo"
	facebookUserinfoURL   = "https://graph.facebook.com/me?fields=id,name,email"
	facebookDebugTokenURL = "https://graph.facebook.com/debug_token"
)

// ProviderCredentials are the OAuth app credentials for one provider. When
// set, tokens are also checked to have been issued to this app, not just to
// any app the user once authorized.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

type federatedVerifier struct {
	google   ProviderCredentials
	facebook ProviderCredentials

	googleUserinfo     string
	googleTokeninfo    string
	facebookUserinfo   string
	facebookDebugToken string
}

// NewFederatedVerifier returns a FederatedVerifier that resolves Google and
// Facebook access tokens to the identity they belong to by calling the
// provider's userinfo endpoint. An invalid or expired token fails the call,
// as does a token issued to a different app when credentials are configured.
func NewFederatedVerifier(google, facebook ProviderCredentials) domain.FederatedVerifier {
	return &federatedVerifier{
		google:   google,
		facebook: facebook,

		googleUserinfo:     googleUserinfoURL,
		googleTokeninfo:    googleTokeninfoURL,
		facebookUserinfo:   facebookUserinfoURL,
		facebookDebugToken: facebookDebugTokenURL,
	}
}

func (v *federatedVerifier) Verify(ctx context.Context, provider, accessToken string) (*domain.FederatedIdentity, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("missing access token")
	}

	var userinfo string
	switch provider {
	case domain.ProviderGoogle:
		if err := v.checkGoogleAudience(ctx, accessToken); err != nil {
			return nil, err
		}
		userinfo = v.googleUserinfo
	case domain.ProviderFacebook:
		if err := v.checkFacebookApp(ctx, accessToken); err != nil {
			return nil, err
		}
		userinfo = v.facebookUserinfo
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(ctx, ts)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfo, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request: provider returned %d", resp.StatusCode)
	}

	// Google uses "sub", Facebook uses "id"; both carry name and email.
	var info struct {
		Sub   string `json:"sub"`
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	if subject == "" {
		return nil, fmt.Errorf("userinfo has no subject")
	}

	return &domain.FederatedIdentity{
		Provider: provider,
		Subject:  subject,
		Email:    info.Email,
		Name:     info.Name,
	}, nil
}

// checkGoogleAudience asks Google's tokeninfo endpoint which client the token
// was minted for and rejects it unless that matches our client ID. Skipped
// when no Google client ID is configured.
func (v *federatedVerifier) checkGoogleAudience(ctx context.Context, accessToken string) error {
	if v.google.ClientID == "" {
		return nil
	}

	target := v.googleTokeninfo + "?access_token=" + url.QueryEscape(accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tokeninfo request: provider returned %d", resp.StatusCode)
	}

	var info struct {
		Aud string `json:"aud"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("decode tokeninfo: %w", err)
	}
	if info.Aud != v.google.ClientID {
		return fmt.Errorf("token was issued to another application")
	}
	return nil
}

// checkFacebookApp inspects the token via Facebook's debug_token endpoint,
// authenticated with the app token ("id|secret"), and rejects tokens that are
// invalid or belong to another app. Skipped when credentials are incomplete.
func (v *federatedVerifier) checkFacebookApp(ctx context.Context, accessToken string) error {
	if v.facebook.ClientID == "" || v.facebook.ClientSecret == "" {
		return nil
	}

	appToken := v.facebook.ClientID + "|" + v.facebook.ClientSecret
	target := fmt.Sprintf("%s?input_token=%s&access_token=%s",
		v.facebookDebugToken, url.QueryEscape(accessToken), url.QueryEscape(appToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("debug_token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("debug_token request: provider returned %d", resp.StatusCode)
	}

	var info struct {
		Data struct {
			AppID   string `json:"app_id"`
			IsValid bool   `json:"is_valid"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("decode debug_token: %w", err)
	}
	if !info.Data.IsValid || info.Data.AppID != v.facebook.ClientID {
		return fmt.Errorf("token was issued to another application")
	}
	return nil
}
