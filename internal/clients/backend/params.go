package backend

import (
	"fmt"
	"github.com/pkg/errors"
	"net/url"
	"strconv"
)

var ErrTooDeepPagination = errors.New("too deep pagination")

const maxResults = 1000

type SearchParameters struct {
	Query   string
	Canton  string
	Page    int
	PerPage int
}

func (s SearchParameters) Validate() error {

	if s.Page < 1 {
		return fmt.Errorf("page must be positive")
	}

	if s.PerPage < 1 || s.PerPage > 100 {
		return fmt.Errorf("per page must be between 1 and 100")
	}

	maxPage := maxResults / s.PerPage
	if s.Page > maxPage {
		return ErrTooDeepPagination
	}

	return nil
}

func (s SearchParameters) ToUrlParams() url.Values {

	params := url.Values{}
	params.Add("q", s.Query)

	if s.Canton != "" {
		params.Add("canton", s.Canton)
	}

	params.Add("page", strconv.Itoa(s.Page))
	params.Add("per_page", strconv.Itoa(s.PerPage))

	return params
}
