package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "showbot/errors"
	"showbot/protocol"
)

// DefaultLoginEndpoint is the official credential service of the chat
// network.
const DefaultLoginEndpoint = "https://play.pokemonshowdown.com/action.php"

// LoginClient exchanges the server's connection challenge for an identity
// assertion. Plain net/http: the exchange is two form posts against a fixed
// endpoint.
type LoginClient struct {
	endpoint string
	http     *http.Client
}

func NewLoginClient(endpoint string, client *http.Client) LoginClient {
	if endpoint == "" {
		endpoint = DefaultLoginEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return LoginClient{endpoint: endpoint, http: client}
}

type loginResponse struct {
	ActionSuccess bool   `json:"actionsuccess"`
	Assertion     string `json:"assertion"`
}

// Assertion authenticates username against the challenge string and returns
// the assertion to present on the socket. Without a password it requests an
// unregistered-name assertion instead.
func (c LoginClient) Assertion(ctx context.Context, username, password, challstr string) (string, error) {
	if password == "" {
		return c.guestAssertion(ctx, username, challstr)
	}

	form := url.Values{
		"act":      {"login"},
		"name":     {username},
		"pass":     {password},
		"challstr": {challstr},
	}
	body, err := c.post(ctx, form)
	if err != nil {
		return "", err
	}

	// The endpoint prefixes its JSON payload with a single "]".
	if !strings.HasPrefix(body, "]") {
		return "", fmt.Errorf("%w: unexpected response %q", apperrors.ErrLoginFailed, truncate(body))
	}
	var resp loginResponse
	if err := json.Unmarshal([]byte(body[1:]), &resp); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrLoginFailed, err)
	}
	return checkAssertion(resp.Assertion)
}

func (c LoginClient) guestAssertion(ctx context.Context, username, challstr string) (string, error) {
	form := url.Values{
		"act":      {"getassertion"},
		"userid":   {string(protocol.ToUserID(username))},
		"challstr": {challstr},
	}
	body, err := c.post(ctx, form)
	if err != nil {
		return "", err
	}
	return checkAssertion(body)
}

func (c LoginClient) post(ctx context.Context, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", apperrors.ErrLoginFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// checkAssertion rejects the endpoint's in-band error convention.
func checkAssertion(assertion string) (string, error) {
	assertion = strings.TrimSpace(assertion)
	if assertion == "" || strings.HasPrefix(assertion, ";;") {
		return "", fmt.Errorf("%w: %s", apperrors.ErrLoginFailed, truncate(assertion))
	}
	return assertion, nil
}

func truncate(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
