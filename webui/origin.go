package webui

import (
	"net/http"
	"net/url"
)

// sameOrigin refuses form posts another site made the browser send. Requests
// without fetch metadata or an Origin header come from non-browser clients and
// pass.
func sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !fromSameOrigin(r) {
			log.Warnf("refuse cross-site %s %s from origin %q", r.Method, r.URL.Path, r.Header.Get("Origin"))
			http.Error(w, "cross-site request refused", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func fromSameOrigin(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
	default:
		return false
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == r.Host
}

// tokenQuery carries the token of the request on to the links of the page.
func tokenQuery(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token == "" {
		return ""
	}
	return "?" + url.Values{"token": {token}}.Encode()
}
