package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrUnauthorized = errors.New("backend token is not configured")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL     string
	token       string
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) SetToken(token string) {
	c.token = token
}

// SearchJobs returns the jobs of one result page. A body without an items array yields
// no jobs, and items that fail to decode are skipped.
func (c *Client) SearchJobs(ctx context.Context, parameters SearchParameters) ([]Job, error) {

	if err := parameters.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	body, err := c.sendRequest(ctx, http.MethodGet, "/jobs/search?"+parameters.ToUrlParams().Encode(), nil, false)
	if err != nil {
		return nil, err
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		log.Warnf("malformed search response: %v", err)
		return []Job{}, nil
	}

	return decodeJobs(response.Items), nil
}

func decodeJobs(raw json.RawMessage) []Job {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Job{}
	}

	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		var job Job
		if err := json.Unmarshal(item, &job); err != nil || job.ID == "" {
			log.Debugf("skipping malformed job item: %s", string(item))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func (c *Client) RecordSearchEvent(ctx context.Context, keyword, canton string) error {

	params := url.Values{}
	params.Add("keyword", keyword)
	if canton != "" {
		params.Add("canton", canton)
	}

	_, err := c.sendRequest(ctx, http.MethodPost, "/jobs/analytics/events?"+params.Encode(), nil, false)
	return err
}

func (c *Client) TopSearches(ctx context.Context, limit int) ([]TopSearch, error) {

	body, err := c.sendRequest(ctx, http.MethodGet, "/jobs/analytics/top?limit="+strconv.Itoa(limit), nil, false)
	if err != nil {
		return nil, err
	}

	var top []TopSearch
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}
	return top, nil
}

func (c *Client) AddFavorite(ctx context.Context, favorite FavoriteIn) error {

	payload, err := json.Marshal(favorite)
	if err != nil {
		return fmt.Errorf("error encoding favorite: %v", err)
	}

	_, err = c.sendRequest(ctx, http.MethodPost, "/jobs/favorites", bytes.NewReader(payload), true)
	return err
}

func (c *Client) ListFavorites(ctx context.Context) ([]Favorite, error) {

	body, err := c.sendRequest(ctx, http.MethodGet, "/jobs/favorites", nil, true)
	if err != nil {
		return nil, err
	}

	var favorites []Favorite
	if err := json.Unmarshal(body, &favorites); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}
	return favorites, nil
}

func (c *Client) DeleteFavorite(ctx context.Context, favoriteID string) error {
	_, err := c.sendRequest(ctx, http.MethodDelete, "/jobs/favorites/"+url.PathEscape(favoriteID), nil, true)
	return err
}

// RemoveFavoriteByJob deletes every remote favorite recorded for the job.
func (c *Client) RemoveFavoriteByJob(ctx context.Context, jobID string) error {

	favorites, err := c.ListFavorites(ctx)
	if err != nil {
		return err
	}

	for _, favorite := range favorites {
		if favorite.JobID != jobID {
			continue
		}
		if err := c.DeleteFavorite(ctx, favorite.ID); err != nil {
			return errors.Wrapf(err, "failed to delete favorite %s", favorite.ID)
		}
	}
	return nil
}

func (c *Client) sendRequest(ctx context.Context, method, path string, body io.Reader, authorized bool) ([]byte, error) {

	if authorized && c.token == "" {
		return nil, ErrUnauthorized
	}

	if c.rateLimiter != nil {
		err := c.rateLimiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request failed with status %v, body: %v", resp.StatusCode, string(body))
	}

	return body, nil
}
