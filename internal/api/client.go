package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the transactional mail provider's REST API.
type Client struct {
	baseURL string
	http    *resty.Client
}

// MailMessage is a single outbound email.
type MailMessage struct {
	To          string `json:"to"`
	ToName      string `json:"to_name"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
	Subject     string `json:"subject"`
	TextBody    string `json:"text_body"`
}

// NewClient creates a new mail API client
func NewClient(baseURL, apiKey string) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	// Configure resty client
	client.http = resty.New().
		SetHeader("User-Agent", "rentdesk-desktop/1.0").
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on 429 (Too Many Requests) and 5xx server errors
			return r.StatusCode() == 429 || (r.StatusCode() >= 500 && r.StatusCode() <= 504)
		})

	return client
}

// SendMail submits a message to the provider's send endpoint.
func (c *Client) SendMail(ctx context.Context, msg MailMessage) error {
	payload := map[string]interface{}{
		"from": map[string]string{
			"email": msg.FromAddress,
			"name":  msg.FromName,
		},
		"to": []map[string]string{
			{"email": msg.To, "name": msg.ToName},
		},
		"subject": msg.Subject,
		"text":    msg.TextBody,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.buildURL("v1/send"))
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("mail API returned HTTP %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// TestConnection verifies the API key against the provider's account endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.buildURL("v1/account"))
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	if !resp.IsSuccess() {
		switch resp.StatusCode() {
		case 401:
			return fmt.Errorf("invalid API key")
		case 404:
			return fmt.Errorf("provider endpoint not found (check the base URL)")
		default:
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.Status())
		}
	}

	return nil
}

// buildURL constructs the full URL for an endpoint
func (c *Client) buildURL(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	return fmt.Sprintf("%s/%s", c.baseURL, endpoint)
}

// SetTimeout allows customizing the timeout for specific operations
func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.SetTimeout(timeout)
}
