package utils

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/filecoin-project/go-jsonrpc/auth"
	auth2 "github.com/ipfs-force-community/sophon-auth/auth"
	"github.com/ipfs-force-community/sophon-auth/core"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/trace"
)

var log = logging.Logger("auth")

// AuthHandler verifies the bearer token of every rpc call and stores the
// account name, client address and permissions in the request context.
type AuthHandler struct {
	Verify func(ctx context.Context, token string) (*auth2.JWTPayload, error)
	Next   http.Handler
}

func NewAuthHandler(local *LocalJwtClient, next http.Handler) *AuthHandler {
	return &AuthHandler{Verify: local.VerifyPayload, Next: next}
}

func jwtUserFromToken(token string) (string, error) {
	sks := strings.Split(token, ".")
	if len(sks) != 3 {
		return "", fmt.Errorf("invalid token")
	}

	enc := []byte(sks[1])
	encoding := base64.RawURLEncoding
	dec := make([]byte, encoding.DecodedLen(len(enc)))
	if _, err := encoding.Decode(dec, enc); err != nil {
		return "", err
	}
	payload := &auth2.JWTPayload{}
	err := json.Unmarshal(dec, payload)
	return payload.Name, err
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "AuthHandler.ServeHTTP",
		func(so *trace.StartOptions) { so.Sampler = trace.AlwaysSample() })
	defer span.End()

	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.FormValue("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	ctx = core.CtxWithTokenLocation(ctx, clientIP(r))

	if len(token) == 0 {
		// local call doesn't need a token
		if !isLoopback(r.RemoteAddr) {
			message := "JWT verification failed, empty token"
			span.SetStatus(trace.Status{Code: trace.StatusCodeUnauthenticated, Message: message})
			log.Warn(message)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx = auth.WithPerm(ctx, core.AdaptOldStrategy(core.PermAdmin))
		h.Next.ServeHTTP(w, r.WithContext(ctx))
		return
	}

	if !strings.HasPrefix(token, "Bearer ") {
		log.Warn("missing Bearer prefix in auth header")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	token = strings.TrimPrefix(token, "Bearer ")

	if mayUser, _ := jwtUserFromToken(token); len(mayUser) != 0 {
		span.AddAttributes(trace.StringAttribute("Account-Unverified", mayUser))
	}
	span.AddAttributes(trace.StringAttribute("X-Real-IP", r.RemoteAddr),
		trace.StringAttribute("preHost", r.Host))

	payload, err := h.Verify(ctx, token)
	if err != nil {
		message := fmt.Sprintf("JWT Verification failed (originating from %s): %s", r.RemoteAddr, err.Error())
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeUnauthenticated,
			Message: message})
		log.Warn(message)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	span.AddAttributes(trace.StringAttribute("Account", payload.Name))

	ctx = core.CtxWithName(ctx, payload.Name)
	ctx = auth.WithPerm(ctx, core.AdaptOldStrategy(payload.Perm))

	h.Next.ServeHTTP(w, r.WithContext(ctx))
}

func clientIP(r *http.Request) string {
	if realIP := r.Header.Get("X-Real-IP"); len(realIP) != 0 {
		return realIP
	}
	return r.RemoteAddr
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
