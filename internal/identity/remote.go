package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eduhub/internal/model"
)

// RemoteVerifier asks the auth service to validate the request. It forwards a
// bearer token, or the signed session headers (X-Session-Id, X-Timestamp,
// X-Signature) together with method, path and body.
type RemoteVerifier struct {
	url    string
	client *http.Client
}

func NewRemoteVerifier(authServiceURL string, client *http.Client) *RemoteVerifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &RemoteVerifier{url: strings.TrimRight(authServiceURL, "/"), client: client}
}

type validateRequest struct {
	Token     string `json:"token,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Signature string `json:"signature,omitempty"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Body      string `json:"body"`
}

type validateResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, r *http.Request) (model.Actor, error) {
	req := validateRequest{
		Token:     bearerToken(r),
		SessionID: r.Header.Get("X-Session-Id"),
		Timestamp: r.Header.Get("X-Timestamp"),
		Signature: r.Header.Get("X-Signature"),
		Method:    r.Method,
		Path:      r.URL.Path,
	}
	if req.Token == "" && (req.SessionID == "" || req.Timestamp == "" || req.Signature == "") {
		return model.Actor{}, ErrNoCredentials
	}
	if req.Token == "" && r.Body != nil {
		// подпись сессии покрывает тело: читаем его и возвращаем обратно для handler
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return model.Actor{}, fmt.Errorf("identity: read body: %w", err)
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		req.Body = string(body)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return model.Actor{}, fmt.Errorf("identity: encode: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url+"/internal/validate", bytes.NewReader(payload))
	if err != nil {
		return model.Actor{}, fmt.Errorf("identity: request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := v.client.Do(hreq)
	if err != nil {
		return model.Actor{}, fmt.Errorf("identity: auth service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Actor{}, ErrInvalid
	}
	var out validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Actor{}, ErrInvalid
	}
	return actor(out.UserID, out.Role)
}
