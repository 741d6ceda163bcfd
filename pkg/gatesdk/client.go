// Package gatesdk is a small client for the gatehouse token service. It
// covers the machine-facing surface: the client_credentials grant,
// introspection, and revocation.
package gatesdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient is a client for the gatehouse token service.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new token service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ClientCredentialsGrant requests an access token using the OAuth2
// client_credentials grant. This is machine-to-machine authentication; the
// grant never returns a refresh token, clients simply re-authenticate.
func (c *SDKClient) ClientCredentialsGrant(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	resp, err := c.postForm(ctx, "/v1/oauth2/token", data, "", "")
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// Introspect asks the server whether a token is currently active (RFC 7662).
// The caller authenticates with its own client credentials.
func (c *SDKClient) Introspect(
	ctx context.Context,
	clientID, clientSecret, token string,
) (*IntrospectionResponse, error) {
	data := url.Values{"token": {token}}

	resp, err := c.postForm(ctx, "/v1/oauth2/introspect", data, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	var introspection IntrospectionResponse
	if err := decodeJSON(resp, &introspection, http.StatusOK); err != nil {
		return nil, err
	}
	return &introspection, nil
}

// Revoke revokes a token the caller owns (RFC 7009). Revoking an already
// revoked or expired token still succeeds.
func (c *SDKClient) Revoke(
	ctx context.Context,
	clientID, clientSecret, token string,
) error {
	data := url.Values{"token": {token}}

	resp, err := c.postForm(ctx, "/v1/oauth2/revoke", data, clientID, clientSecret)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}
	return nil
}

func (c *SDKClient) postForm(
	ctx context.Context,
	path string,
	data url.Values,
	basicUser, basicPass string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.BaseURL+path,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicUser != "" {
		req.SetBasicAuth(basicUser, basicPass)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// decodeJSON decodes a JSON response into target, converting non-expected
// statuses into typed OAuth2Error values.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseErrorResponse(statusCode int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &OAuth2Error{
			StatusCode:  statusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}
	return fmt.Errorf("request failed with status %d: %s", statusCode, string(body))
}
