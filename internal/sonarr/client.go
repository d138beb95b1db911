package sonarr

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

// Client talks to a Sonarr v3 instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Series mirrors the subset of Sonarr's series resource this service
// reads and writes.
type Series struct {
	ID               int         `json:"id,omitempty"`
	Title            string      `json:"title"`
	TitleSlug        string      `json:"titleSlug"`
	Year             int         `json:"year"`
	TVDBID           int         `json:"tvdbId"`
	QualityProfileID int         `json:"qualityProfileId"`
	RootFolderPath   string      `json:"rootFolderPath"`
	Monitored        bool        `json:"monitored"`
	SeasonFolder     bool        `json:"seasonFolder"`
	SeriesType       string      `json:"seriesType"`
	AddOptions       *AddOptions `json:"addOptions,omitempty"`
}

type AddOptions struct {
	SearchForMissingEpisodes     bool   `json:"searchForMissingEpisodes"`
	SearchForCutoffUnmetEpisodes bool   `json:"searchForCutoffUnmetEpisodes"`
	Monitor                      string `json:"monitor"`
}

type SearchResult struct {
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
	Year      int    `json:"year"`
	TVDBID    int    `json:"tvdbId"`
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
		return nil, fmt.Errorf("sonarr API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// Search looks a series up by term.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	endpoint := "/api/v3/series/lookup?term=" + url.QueryEscape(term)
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

// Add registers a series in Sonarr.
func (c *Client) Add(ctx context.Context, series Series) (*Series, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/api/v3/series", series)
	if err != nil {
		return nil, err
	}

	var result Series
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddByTerm looks the term up, takes the first hit and adds it with the
// instance's first root folder and quality profile. searchOnAdd
// controls whether Sonarr should go hunt for missing episodes; false
// when a torrent is already on its way in.
func (c *Client) AddByTerm(ctx context.Context, term string, searchOnAdd bool) (*Series, error) {
	results, err := c.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search series: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("series not found: %s", term)
	}
	hit := results[0]

	folders, err := c.RootFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get root folders: %w", err)
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("no root folders configured in Sonarr")
	}

	profiles, err := c.QualityProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get quality profiles: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no quality profiles configured in Sonarr")
	}

	return c.Add(ctx, Series{
		Title:            hit.Title,
		TitleSlug:        hit.TitleSlug,
		Year:             hit.Year,
		TVDBID:           hit.TVDBID,
		QualityProfileID: profiles[0].ID,
		RootFolderPath:   folders[0].Path,
		Monitored:        true,
		SeasonFolder:     true,
		SeriesType:       "standard",
		AddOptions: &AddOptions{
			SearchForMissingEpisodes:     searchOnAdd,
			SearchForCutoffUnmetEpisodes: false,
			Monitor:                      "all",
		},
	})
}
