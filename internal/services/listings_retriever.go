package services

import (
	"context"
	"github.com/maxaizer/jobs-finder/internal/clients/backend"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"html"
	"strings"
)

type ListingsRetriever interface {
	GetListings(ctx context.Context, key models.FilterKey) ([]models.Listing, error)
}

type BackendListingsRetriever struct {
	client   *backend.Client
	pageSize int
	policy   *bluemonday.Policy
}

func NewBackendListingsRetriever(client *backend.Client, pageSize int) *BackendListingsRetriever {
	return &BackendListingsRetriever{client: client, pageSize: pageSize, policy: bluemonday.StrictPolicy()}
}

// GetListings fetches the first result page for the filter.
func (r *BackendListingsRetriever) GetListings(ctx context.Context, key models.FilterKey) ([]models.Listing, error) {

	params := backend.SearchParameters{
		Query:   key.Query,
		Canton:  key.Region,
		Page:    1,
		PerPage: r.pageSize,
	}
	if err := params.Validate(); err != nil {
		if errors.Is(err, backend.ErrTooDeepPagination) {
			log.Warningf("too deep pagination for %q, per page: %d", key.String(), r.pageSize)
			return []models.Listing{}, nil
		}
		return nil, err
	}

	jobs, err := r.client.SearchJobs(ctx, params)
	if err != nil {
		return nil, err
	}

	return lo.Map(jobs, func(job backend.Job, _ int) models.Listing {
		return toListing(job, r.policy)
	}), nil
}

func toListing(job backend.Job, policy *bluemonday.Policy) models.Listing {
	return models.Listing{
		ID:             job.ID,
		Source:         models.Source(job.Source),
		Title:          job.Title,
		Company:        job.Company,
		Location:       job.Location,
		RegionCode:     job.Canton,
		URL:            job.URL,
		PostedAt:       job.PostedAt.Time,
		EmploymentType: job.EmploymentType,
		Salary:         job.Salary,
		Snippet:        sanitizeSnippet(policy, job.Snippet),
	}
}

func sanitizeSnippet(policy *bluemonday.Policy, snippet string) string {
	if snippet == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(snippet)))
}
