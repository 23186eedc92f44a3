package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/validation"
)

const (
	defaultUserAgent = "polarstock/1.0 (stock image slots; github.com/pders01/polarstock)"
	defaultTimeout   = 15 * time.Second
	maxPageSize      = 80
)

// PexelsClient talks to the Pexels v1 search API.
type PexelsClient struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	userAgent   string
	orientation string
	locale      string
	tokens      *validation.URLValidator
}

func NewPexelsClient(cfg *config.Config) (*PexelsClient, error) {
	urls := validation.NewURLValidator()
	return newPexelsClient(cfg, urls)
}

// NewPermissivePexelsClient accepts local base URLs; used against test servers.
func NewPermissivePexelsClient(cfg *config.Config) (*PexelsClient, error) {
	return newPexelsClient(cfg, validation.NewPermissiveURLValidator())
}

func newPexelsClient(cfg *config.Config, urls *validation.URLValidator) (*PexelsClient, error) {
	p := cfg.Provider
	base, err := urls.ValidateAndNormalize(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider base URL: %w", err)
	}

	timeout := p.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := p.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &PexelsClient{
		client:      &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(base, "/"),
		apiKey:      p.APIKey,
		userAgent:   ua,
		orientation: p.Orientation,
		locale:      p.Locale,
		tokens:      urls.RestrictTo(validation.HostOf(base)),
	}, nil
}

// Search implements Provider. A non-empty pageToken is the next_page URL
// returned by the previous page and must point at the same host.
func (c *PexelsClient) Search(ctx context.Context, query string, pageSize int, pageToken string) (*SearchPage, error) {
	var endpoint string
	if pageToken != "" {
		next, err := c.tokens.ValidateAndNormalize(pageToken)
		if err != nil {
			return nil, &FetchError{Query: query, Err: fmt.Errorf("rejecting page token: %w", err)}
		}
		// Tokens come back verbatim from the API; re-encode the query so a
		// raw space or other reserved character cannot produce a bad request.
		u, err := url.Parse(next)
		if err != nil {
			return nil, &FetchError{Query: query, Err: fmt.Errorf("rejecting page token: %w", err)}
		}
		u.RawQuery = u.Query().Encode()
		endpoint = u.String()
	} else {
		if pageSize < 1 {
			pageSize = 1
		}
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
		params := url.Values{}
		params.Set("query", query)
		params.Set("per_page", strconv.Itoa(pageSize))
		if c.orientation != "" {
			params.Set("orientation", c.orientation)
		}
		if c.locale != "" {
			params.Set("locale", c.locale)
		}
		endpoint = c.baseURL + "/search?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Query: query, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Query: query, Err: fmt.Errorf("fetching page: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Query: query, StatusCode: resp.StatusCode}
	}

	var body pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{Query: query, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return body.toPage(), nil
}

type pexelsResponse struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Photos       []pexelsPhoto `json:"photos"`
	NextPage     string        `json:"next_page"`
}

type pexelsPhoto struct {
	ID              json.Number `json:"id"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	URL             string      `json:"url"`
	Photographer    string      `json:"photographer"`
	PhotographerURL string      `json:"photographer_url"`
	AvgColor        string      `json:"avg_color"`
	Alt             string      `json:"alt"`
	Src             Sizes       `json:"src"`
}

func (r *pexelsResponse) toPage() *SearchPage {
	page := &SearchPage{
		TotalResults:  r.TotalResults,
		NextPageToken: r.NextPage,
		Photos:        make([]Photo, 0, len(r.Photos)),
	}
	for _, p := range r.Photos {
		if p.ID.String() == "" {
			continue
		}
		page.Photos = append(page.Photos, Photo{
			ID:       p.ID.String(),
			Width:    p.Width,
			Height:   p.Height,
			PageURL:  p.URL,
			Alt:      p.Alt,
			AvgColor: p.AvgColor,
			Sizes:    p.Src,
			Attribution: Attribution{
				Author:     p.Photographer,
				ProfileURL: p.PhotographerURL,
			},
		})
	}
	return page
}
