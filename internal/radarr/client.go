package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a Radarr v3 instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Movie mirrors the subset of Radarr's movie resource this service
// reads and writes.
type Movie struct {
	ID                  int         `json:"id,omitempty"`
	Title               string      `json:"title"`
	TitleSlug           string      `json:"titleSlug"`
	Year                int         `json:"year"`
	TMDBID              int         `json:"tmdbId"`
	QualityProfileID    int         `json:"qualityProfileId"`
	RootFolderPath      string      `json:"rootFolderPath"`
	Monitored           bool        `json:"monitored"`
	MinimumAvailability string      `json:"minimumAvailability"`
	AddOptions          *AddOptions `json:"addOptions,omitempty"`
}

type AddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

type SearchResult struct {
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
	Year      int    `json:"year"`
	TMDBID    int    `json:"tmdbId"`
}

type RootFolder struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("radarr API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Search looks a movie up by term.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	endpoint := "/api/v3/movie/lookup?term=" + url.QueryEscape(term)
	respBody, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) RootFolders(ctx context.Context) ([]RootFolder, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/v3/rootfolder", nil)
	if err != nil {
		return nil, err
	}

	var folders []RootFolder
	if err := json.Unmarshal(respBody, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (c *Client) QualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/api/v3/qualityprofile", nil)
	if err != nil {
		return nil, err
	}

	var profiles []QualityProfile
	if err := json.Unmarshal(respBody, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Add registers a movie in Radarr.
func (c *Client) Add(ctx context.Context, movie Movie) (*Movie, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/v3/movie", movie)
	if err != nil {
		return nil, err
	}

	var result Movie
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddByTerm looks the term up, takes the first hit and adds it with the
// instance's first root folder and quality profile. searchOnAdd
// controls whether Radarr should hunt for a release afterwards; false
// when a torrent is already on its way in.
func (c *Client) AddByTerm(ctx context.Context, term string, searchOnAdd bool) (*Movie, error) {
	results, err := c.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search movie: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("movie not found: %s", term)
	}
	hit := results[0]

	folders, err := c.RootFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get root folders: %w", err)
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("no root folders configured in Radarr")
	}

	profiles, err := c.QualityProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get quality profiles: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no quality profiles configured in Radarr")
	}

	return c.Add(ctx, Movie{
		Title:               hit.Title,
		TitleSlug:           hit.TitleSlug,
		Year:                hit.Year,
		TMDBID:              hit.TMDBID,
		QualityProfileID:    profiles[0].ID,
		RootFolderPath:      folders[0].Path,
		Monitored:           true,
		MinimumAvailability: "released",
		AddOptions:          &AddOptions{SearchForMovie: searchOnAdd},
	})
}
