package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps an OpenAI-compatible API client. The explicit base URL
// makes it usable against local Ollama-style endpoints as well as hosted
// providers.
type Client struct {
	client *openai.Client
}

// NewClient creates a client for the OpenAI-compatible endpoint at
// baseURL, authenticated with apiKey.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("API base URL not configured")
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages
// (e.g. metadata extraction).
func (c *Client) Client() *openai.Client {
	return c.client
}
