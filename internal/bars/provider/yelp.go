package provider

import (
	"barhop/pkg/client"
	"barhop/pkg/logger"
	"barhop/pkg/model"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrProviderUnavailable = errors.New("search provider unavailable")
	ErrProviderAuth        = errors.New("search provider rejected credentials")
)

const searchPath = "/v3/businesses/search"

type SearchResponse struct {
	Businesses []model.Venue `json:"businesses"`
	Total      int           `json:"total"`
}

type SearchProvider interface {
	Search(ctx context.Context, term, location string) (*SearchResponse, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Limit   int
}

type yelpProvider struct {
	cfg        Config
	httpClient *client.HttpClient
	log        *logger.Logger
}

func NewYelpProvider(cfg Config, log *logger.Logger) SearchProvider {
	httpClient := client.NewHttpClientWithTimeout(cfg.BaseURL, cfg.Timeout)
	if cfg.APIKey != "" {
		httpClient.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &yelpProvider{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log,
	}
}

func (p *yelpProvider) Search(ctx context.Context, term, location string) (*SearchResponse, error) {
	if p.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrProviderAuth)
	}

	q := url.Values{}
	q.Set("term", term)
	q.Set("location", location)
	if p.cfg.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.cfg.Limit))
	}

	start := time.Now()
	resp, err := p.httpClient.GET(ctx, searchPath+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	p.log.Debug("Search provider responded",
		"status", resp.StatusCode,
		"location", location,
		"duration", time.Since(start),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrProviderAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrProviderUnavailable, resp.StatusCode, client.GetErrorMessage(resp))
	}

	var result SearchResponse
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrProviderUnavailable, err)
	}
	if result.Businesses == nil {
		result.Businesses = []model.Venue{}
	}

	return &result, nil
}
