package gitlab_http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/davarch/gitlab-exporter/internal/domain"
)

const defaultPerPage = 100

type Client struct {
	baseUrl string
	token   string
	hc      *http.Client
	perPage int
}

func New(baseUrl string, token string, timeout time.Duration) *Client {
	tr := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseUrl: trimSlash(baseUrl),
		token:   token,
		hc:      &http.Client{Transport: tr, Timeout: timeout},
		perPage: defaultPerPage,
	}
}

type pipelineDTO struct {
	ID        int64     `json:"id"`
	Ref       string    `json:"ref"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	WebURL    string    `json:"web_url"`
}

// Pipelines fetches every pipeline matching q for one project, walking
// pages until the API returns an empty one.
func (c *Client) Pipelines(ctx context.Context, pr domain.Project, q domain.PipelineQuery) ([]domain.Pipeline, error) {
	listURL := fmt.Sprintf("%s/api/v4/projects/%s/pipelines", c.baseUrl, url.QueryEscape(pr.Slug))

	params := url.Values{}
	params.Set("ref", q.Ref)
	params.Set("order_by", "updated_at")
	params.Set("sort", "asc")
	params.Set("per_page", strconv.Itoa(c.perPage))
	if !q.UpdatedAfter.IsZero() {
		params.Set("updated_after", q.UpdatedAfter.UTC().Format(time.RFC3339))
	}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}

	var out []domain.Pipeline
	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))

		list, err := c.fetchPage(ctx, listURL, params)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			break
		}

		for _, p := range list {
			out = append(out, domain.Pipeline{
				ID:        p.ID,
				Ref:       p.Ref,
				Status:    mapStatus(p.Status),
				CreatedAt: p.CreatedAt,
				UpdatedAt: p.UpdatedAt,
				WebURL:    p.WebURL,
			})
		}
	}

	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, listURL string, params url.Values) ([]pipelineDTO, error) {
	var list []pipelineDTO

	op := func() error {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, listURL+"?"+params.Encode(), nil)
		req.Header.Set("PRIVATE-TOKEN", c.token)

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}

		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if sec, _ := strconv.Atoi(ra); sec > 0 {
					select {
					case <-time.After(time.Duration(sec) * time.Second):
					case <-ctx.Done():
						return ctx.Err()
					}
					return fmt.Errorf("retry after due to 429")
				}
			}

			return fmt.Errorf("gitlab 429")
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("gitlab %s", resp.Status)
		}

		if resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("gitlab %s", resp.Status))
		}

		list = list[:0]
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			return err
		}

		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 5 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return list, nil
}

func mapStatus(s string) domain.PipelineStatus {
	switch s {
	case "success":
		return domain.StatusSuccess
	case "failed":
		return domain.StatusFailed
	case "running":
		return domain.StatusRunning
	default:
		return domain.StatusOther
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
