package rest

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ClientBuilder provides a fluent interface for building REST clients.
type ClientBuilder struct {
	token          string
	baseURL        string
	apiVersion     int
	timeout        time.Duration
	libraryURL     string
	libraryVersion string
	logger         *zap.Logger
}

// NewClient creates a REST client builder with the public API defaults.
func NewClient() *ClientBuilder {
	return &ClientBuilder{
		baseURL:        DefaultBaseURL,
		apiVersion:     DefaultAPIVersion,
		timeout:        30 * time.Second,
		libraryURL:     DefaultLibraryURL,
		libraryVersion: DefaultLibraryVersion,
		logger:         zap.NewNop(),
	}
}

// WithToken sets the bot token sent as "Authorization: Bot <token>".
func (b *ClientBuilder) WithToken(token string) *ClientBuilder {
	b.token = token
	return b
}

// WithBaseURL sets the API root, without the version segment.
func (b *ClientBuilder) WithBaseURL(baseURL string) *ClientBuilder {
	if baseURL != "" {
		b.baseURL = baseURL
	}
	return b
}

func (b *ClientBuilder) WithAPIVersion(version int) *ClientBuilder {
	if version > 0 {
		b.apiVersion = version
	}
	return b
}

// WithTimeout bounds each HTTP request.
func (b *ClientBuilder) WithTimeout(timeout time.Duration) *ClientBuilder {
	if timeout > 0 {
		b.timeout = timeout
	}
	return b
}

// WithUserAgent sets the URL and version reported in the User-Agent header.
func (b *ClientBuilder) WithUserAgent(url, version string) *ClientBuilder {
	if url != "" {
		b.libraryURL = url
	}
	if version != "" {
		b.libraryVersion = version
	}
	return b
}

func (b *ClientBuilder) WithLogger(logger *zap.Logger) *ClientBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// IsValid checks that all required configuration is present.
func (b *ClientBuilder) IsValid() error {
	if b.token == "" {
		return fmt.Errorf("token is required")
	}
	if b.baseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	return nil
}

// Build creates the REST client.
func (b *ClientBuilder) Build() (*Client, error) {
	if err := b.IsValid(); err != nil {
		return nil, err
	}

	http := resty.New().
		SetBaseURL(b.APIURL()).
		SetTimeout(b.timeout).
		SetHeader("Authorization", "Bot "+b.token).
		SetHeader("User-Agent", b.UserAgent()).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   http,
		logger: b.logger,
	}, nil
}

// APIURL is the versioned API root, e.g. https://discord.com/api/v9.
func (b *ClientBuilder) APIURL() string {
	return fmt.Sprintf("%s/v%d", strings.TrimRight(b.baseURL, "/"), b.apiVersion)
}

// UserAgent follows the "DiscordBot (url, version)" convention.
func (b *ClientBuilder) UserAgent() string {
	return fmt.Sprintf("DiscordBot (%s, %s)", b.libraryURL, b.libraryVersion)
}
