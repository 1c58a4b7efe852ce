package twilio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIBaseURL is the Twilio REST API host.
const DefaultAPIBaseURL = "https://api.twilio.com"

// Terminal call statuses reported by the provider's status callback.
var terminalStatuses = map[string]bool{
	"completed": true,
	"failed":    true,
	"busy":      true,
	"no-answer": true,
	"canceled":  true,
}

// IsTerminalStatus reports whether a provider call status ends the call.
func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}

// RestClient is the minimal Twilio REST surface the relay needs: updating
// a live call with new TwiML to redirect its leg.
type RestClient struct {
	AccountSID string
	AuthToken  string
	BaseURL    string // defaults to DefaultAPIBaseURL
	HTTPClient *http.Client
}

// NewRestClient creates a REST client with a bounded default HTTP timeout.
func NewRestClient(accountSID, authToken string) *RestClient {
	return &RestClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		BaseURL:    DefaultAPIBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// RedirectCall updates the live call identified by callSID with the given
// TwiML document. Used by forward_call to send the leg to a human.
func (c *RestClient) RedirectCall(ctx context.Context, callSID, twiml string) error {
	base := c.BaseURL
	if base == "" {
		base = DefaultAPIBaseURL
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", base, c.AccountSID, callSID)

	form := url.Values{}
	form.Set("Twiml", twiml)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("twilio: build redirect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: redirect call %s: %w", callSID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio: redirect call %s: status %d: %s", callSID, resp.StatusCode, string(body))
	}
	return nil
}
