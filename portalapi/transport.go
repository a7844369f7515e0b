package portalapi

import "net/http"

// TokenSource supplies the current access token, or "" when there is none.
// *session.Manager's AccessToken method satisfies it.
type TokenSource interface {
	AccessToken() string
}

// BearerTransport injects "Authorization: Bearer <token>" into every request
// carrying no Authorization header of its own. It is the transport the
// dashboard's resource fetchers wrap around their HTTP client. It does not
// refresh tokens or retry on 401; an expired session surfaces as an
// ordinary failed request.
type BearerTransport struct {
	Source TokenSource
	Base   http.RoundTripper
}

var _ http.RoundTripper = (*BearerTransport)(nil)

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if req.Header.Get("Authorization") == "" {
		if token := t.Source.AccessToken(); token != "" {
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return base.RoundTrip(req)
}
