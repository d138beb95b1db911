package qbittorrent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client drives the qBittorrent Web API v2. Authentication is a
// session cookie obtained on first use; the cookie jar keeps it across
// calls.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client

	mu       sync.Mutex
	loggedIn bool
}

func NewClient(baseURL, username, password string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

func (c *Client) postForm(ctx context.Context, path string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.http.Do(req)
}

// Login authenticates and stores the session cookie. qBittorrent
// answers 200 with a literal "Ok." or "Fails." body rather than using
// status codes.
func (c *Client) Login(ctx context.Context) error {
	data := url.Values{}
	data.Set("username", c.username)
	data.Set("password", c.password)

	resp, err := c.postForm(ctx, "/api/v2/auth/login", data)
	if err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Ok." {
		return fmt.Errorf("login failed: %s", string(body))
	}

	c.loggedIn = true
	return nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	if c.loggedIn {
		return nil
	}
	return c.Login(ctx)
}

// AddTorrent adds a magnet link under the given category.
func (c *Client) AddTorrent(ctx context.Context, magnetLink, category string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLogin(ctx); err != nil {
		return err
	}

	data := url.Values{}
	data.Set("urls", magnetLink)
	data.Set("category", category)

	resp, err := c.postForm(ctx, "/api/v2/torrents/add", data)
	if err != nil {
		return fmt.Errorf("failed to add torrent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to add torrent: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

// EnsureCategory creates the category if it does not exist yet. A
// failure is ignored: the common cause is that it already does.
func (c *Client) EnsureCategory(ctx context.Context, category string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLogin(ctx); err != nil {
		return err
	}

	data := url.Values{}
	data.Set("category", category)

	resp, err := c.postForm(ctx, "/api/v2/torrents/createCategory", data)
	if err == nil {
		resp.Body.Close()
	}
	return nil
}
