package cloud

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/epistemix-com/epx-go/internal/epxconfig"
)

// ClientVersion is sent on every request as the fredcli-version header,
// identifying this client to the platform API.
const ClientVersion = "0.4.0"

const (
	// hubTokenURLQPS limits how often this client will hit the hub's
	// token endpoint; back off hard rather than hammer it under load.
	hubTokenURLQPS   = .05
	hubTokenURLBurst = 3
)

// hubTokenSource exchanges a JupyterHub API token for a short-lived
// platform bearer token, rate-limited and cached via
// oauth2.ReuseTokenSource.
type hubTokenSource struct {
	httpClient *http.Client
	tokenURL   string
	hubToken   string
	throttle   *rate.Limiter
}

func (h *hubTokenSource) Token() (*oauth2.Token, error) {
	r := h.throttle.Reserve()
	if !r.OK() {
		return nil, errors.Errorf(
			"hub token refresh rate limiter (rate: %f, burst: %d) cannot admit this request",
			h.throttle.Limit(), h.throttle.Burst())
	}
	time.Sleep(r.Delay())
	return h.fetch()
}

func (h *hubTokenSource) fetch() (*oauth2.Token, error) {
	req, err := http.NewRequest(http.MethodPost, h.tokenURL, strings.NewReader(""))
	if err != nil {
		return nil, errors.Wrap(err, "build hub token request")
	}
	req.Header.Set("Authorization", "token "+h.hubToken)

	res, err := h.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request hub token")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, errors.Errorf("hub token endpoint returned status %d", res.StatusCode)
	}

	var tok struct {
		AccessToken string    `json:"access_token"`
		ExpiresAt   time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		return nil, errors.Wrap(err, "decode hub token response")
	}
	return &oauth2.Token{
		AccessToken: tok.AccessToken,
		Expiry:      tok.ExpiresAt,
	}, nil
}

// NewHubTokenSource builds a caching, rate-limited token source that
// exchanges cfg.HubToken for a bearer token at cfg.HubURL.
func NewHubTokenSource(cfg epxconfig.Config) oauth2.TokenSource {
	src := &hubTokenSource{
		httpClient: http.DefaultClient,
		tokenURL:   strings.TrimRight(cfg.HubURL, "/") + "/services/epistemix-platform-api/token",
		hubToken:   cfg.HubToken,
		throttle:   rate.NewLimiter(hubTokenURLQPS, hubTokenURLBurst),
	}
	return oauth2.ReuseTokenSource(nil, src)
}

// PlatformAPIHeaders builds the headers to send on a run submission
// request, selecting the offline-token or hub-token-refresher strategy
// based on which of cfg's credentials are populated. Offline token takes
// precedence when both are set.
func PlatformAPIHeaders(cfg epxconfig.Config) (http.Header, error) {
	h := http.Header{}
	h.Set("content-type", "application/json")
	h.Set("fredcli-version", ClientVersion)

	switch {
	case cfg.UseOfflineToken():
		h.Set("Offline-Token", "Bearer "+cfg.OfflineToken)
	case cfg.UseHubTokenRefresher():
		tok, err := NewHubTokenSource(cfg).Token()
		if err != nil {
			return nil, errors.Wrap(err, "refresh hub token")
		}
		h.Set("Authorization", "Bearer "+tok.AccessToken)
	default:
		return nil, errors.New("no credentials configured: set FRED_CLOUD_RUNNER_TOKEN or EPX_HUB_URL+JPY_API_TOKEN")
	}
	return h, nil
}
