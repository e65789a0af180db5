package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

const testBaseURL = "https://backend.test/api/v1"

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func fileResponse(path string) (*http.Response, error) {
	file, err := os.ReadFile(path)

	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewBuffer(file)),
	}, err
}

func bodyResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newTestClient(httpClient HTTPClient) *Client {
	client := NewClient(testBaseURL+"/", time.Second)
	client.SetHTTPClient(httpClient)
	return client
}

func Test_BackendClient_SearchJobs_ShouldBeSuccessful(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodGet &&
			req.URL.String() == testBaseURL+"/jobs/search?canton=ZH&page=1&per_page=20&q=golang+dev"
	})).Return(fileResponse("testdata/search.json"))

	client := newTestClient(mockClient)

	jobs, err := client.SearchJobs(context.Background(), SearchParameters{Query: "golang dev", Canton: "ZH", Page: 1, PerPage: 20})
	require.NoError(t, err)

	assert.Len(jobs, 2)
	assert.Equal("indeed:8f2c1a", jobs[0].ID)
	assert.Equal("Go Backend Engineer", jobs[0].Title)
	assert.Equal(time.Date(2024, 11, 2, 8, 15, 0, 0, time.UTC), jobs[0].PostedAt.Time)
	assert.Equal("rav:4411", jobs[1].ID)
	assert.Empty(jobs[1].Company)
	assert.False(jobs[1].PostedAt.IsZero())
	mockClient.AssertExpectations(t)
}

func Test_BackendClient_SearchJobs_WhenNoCanton_ShouldOmitParameter(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.RawQuery == "page=1&per_page=20&q=go"
	})).Return(bodyResponse(200, `{"items":[],"total":0}`), nil)

	jobs, err := newTestClient(mockClient).SearchJobs(context.Background(), SearchParameters{Query: "go", Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Empty(t, jobs)
	mockClient.AssertExpectations(t)
}

func Test_BackendClient_SearchJobs_WhenMalformedItems_ShouldSkipThem(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(fileResponse("testdata/search_malformed_items.json"))

	jobs, err := newTestClient(mockClient).SearchJobs(context.Background(), SearchParameters{Query: "go", Page: 1, PerPage: 20})
	require.NoError(t, err)

	require.Len(t, jobs, 2)
	assert.Equal(t, "indeed:1", jobs[0].ID)
	assert.Equal(t, "indeed:2", jobs[1].ID)
	assert.True(t, jobs[1].PostedAt.IsZero())
}

func Test_BackendClient_SearchJobs_WhenItemsMissingOrNotArray_ShouldReturnEmpty(t *testing.T) {

	bodies := []string{
		`{"total": 3}`,
		`{"items": {"id": "indeed:1"}}`,
		`{"items": null}`,
		`not json at all`,
		``,
	}

	for _, body := range bodies {
		mockClient := &mockHTTPClient{}
		mockClient.On("Do", mock.Anything).Return(bodyResponse(200, body), nil)

		jobs, err := newTestClient(mockClient).SearchJobs(context.Background(), SearchParameters{Query: "go", Page: 1, PerPage: 20})
		assert.NoError(t, err, body)
		assert.NotNil(t, jobs, body)
		assert.Empty(t, jobs, body)
	}
}

func Test_BackendClient_SearchJobs_WhenServerFails_ShouldReturnError(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(bodyResponse(502, "bad gateway"), nil)

	_, err := newTestClient(mockClient).SearchJobs(context.Background(), SearchParameters{Query: "go", Page: 1, PerPage: 20})
	assert.ErrorContains(t, err, "502")
}

func Test_BackendClient_SearchJobs_WhenTransportFails_ShouldReturnError(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := newTestClient(mockClient).SearchJobs(context.Background(), SearchParameters{Query: "go", Page: 1, PerPage: 20})
	assert.ErrorContains(t, err, "connection refused")
}

func Test_SearchParameters_Validate(t *testing.T) {

	assert.NoError(t, SearchParameters{Page: 1, PerPage: 20}.Validate())
	assert.Error(t, SearchParameters{Page: 0, PerPage: 20}.Validate())
	assert.Error(t, SearchParameters{Page: 1, PerPage: 0}.Validate())
	assert.Error(t, SearchParameters{Page: 1, PerPage: 101}.Validate())
	assert.ErrorIs(t, SearchParameters{Page: 51, PerPage: 20}.Validate(), ErrTooDeepPagination)
}

func Test_BackendClient_RecordSearchEvent_ShouldPostKeywordAndCanton(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodPost &&
			req.URL.String() == testBaseURL+"/jobs/analytics/events?canton=GE&keyword=data+analyst"
	})).Return(bodyResponse(204, ""), nil)

	err := newTestClient(mockClient).RecordSearchEvent(context.Background(), "data analyst", "GE")
	assert.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func Test_BackendClient_TopSearches_ShouldBeSuccessful(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == testBaseURL+"/jobs/analytics/top?limit=5"
	})).Return(fileResponse("testdata/top.json"))

	top, err := newTestClient(mockClient).TopSearches(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []TopSearch{
		{Keyword: "golang", Canton: "ZH", Count: 12},
		{Keyword: "python", Canton: "", Count: 7},
	}, top)
}

func Test_BackendClient_AddFavorite_WhenNoToken_ShouldFailWithoutRequest(t *testing.T) {

	mockClient := &mockHTTPClient{}

	err := newTestClient(mockClient).AddFavorite(context.Background(), FavoriteIn{JobID: "indeed:1"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	mockClient.AssertNotCalled(t, "Do", mock.Anything)
}

func Test_BackendClient_AddFavorite_ShouldSendBearerAndBody(t *testing.T) {

	var sent FavoriteIn
	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		if req.Method != http.MethodPost || req.Header.Get("Authorization") != "Bearer secret" {
			return false
		}
		return json.NewDecoder(req.Body).Decode(&sent) == nil
	})).Return(bodyResponse(201, `{}`), nil)

	client := newTestClient(mockClient)
	client.SetToken("secret")

	favorite := FavoriteIn{JobID: "rav:4411", Source: "rav", Title: "Softwareentwickler", Canton: "ZH", URL: "https://job-room.ch/4411"}
	require.NoError(t, client.AddFavorite(context.Background(), favorite))
	assert.Equal(t, favorite, sent)
}

func Test_BackendClient_RemoveFavoriteByJob_ShouldDeleteAllMatching(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodGet && req.URL.Path == "/api/v1/jobs/favorites"
	})).Return(fileResponse("testdata/favorites.json"))
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodDelete && req.URL.Path == "/api/v1/jobs/favorites/11"
	})).Return(bodyResponse(204, ""), nil).Once()
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodDelete && req.URL.Path == "/api/v1/jobs/favorites/13"
	})).Return(bodyResponse(204, ""), nil).Once()

	client := newTestClient(mockClient)
	client.SetToken("secret")

	require.NoError(t, client.RemoveFavoriteByJob(context.Background(), "indeed:8f2c1a"))
	mockClient.AssertExpectations(t)
	mockClient.AssertNumberOfCalls(t, "Do", 3)
}

func Test_BackendClient_ListFavorites_ShouldParseCreatedAt(t *testing.T) {

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(fileResponse("testdata/favorites.json"))

	client := newTestClient(mockClient)
	client.SetToken("secret")

	favorites, err := client.ListFavorites(context.Background())
	require.NoError(t, err)
	require.Len(t, favorites, 3)
	assert.Equal(t, "rav:4411", favorites[1].JobID)
	assert.Equal(t, 2024, favorites[0].CreatedAt.Year())
}
