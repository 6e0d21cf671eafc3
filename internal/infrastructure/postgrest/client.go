package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type accessTokenKey struct{}

// WithAccessToken attaches the caller's JWT so row-level security policies
// evaluate as that user instead of the service key.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func accessTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(accessTokenKey{}).(string); ok {
		return token
	}
	return ""
}

// APIError is the error body PostgREST returns for failed requests.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("postgrest %d: %s", e.StatusCode, e.Message)
}

// Filter is a single column predicate such as id=eq.<value>.
type Filter struct {
	Column   string
	Operator string
	Value    string
}

// Eq builds an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Operator: "eq", Value: value}
}

// Query describes the select/filter/order/page parameters of a request.
type Query struct {
	Filters []Filter
	// Order is a comma separated column list, all sorted in the same direction.
	Order string
	Desc  bool
	// Limit of zero leaves the result unbounded.
	Limit  int
	Offset int
}

// Values renders the query as PostgREST URL parameters.
func (q Query) Values() url.Values {
	values := url.Values{}
	for _, f := range q.Filters {
		values.Add(f.Column, f.Operator+"."+f.Value)
	}
	if q.Order != "" {
		direction := "asc"
		if q.Desc {
			direction = "desc"
		}
		columns := strings.Split(q.Order, ",")
		for i, column := range columns {
			columns[i] = strings.TrimSpace(column) + "." + direction
		}
		values.Set("order", strings.Join(columns, ","))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	return values
}

// Client talks to a Supabase PostgREST endpoint.
type Client struct {
	httpClient *resty.Client
	apiKey     string
}

// NewClient creates a Resty-backed client for <projectURL>/rest/v1.
func NewClient(projectURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(strings.TrimRight(projectURL, "/")+"/rest/v1").
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetHeader("apikey", apiKey).
			SetTimeout(timeout),
		apiKey: apiKey,
	}
}

// Insert creates row in table and decodes the stored representation into result.
func (c *Client) Insert(ctx context.Context, table string, row any, result any) error {
	resp, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(row).
		SetResult(result).
		Post("/" + table)
	return c.check(resp, err)
}

// Select reads rows from table matching q into result.
func (c *Client) Select(ctx context.Context, table string, q Query, result any) error {
	values := q.Values()
	values.Set("select", "*")
	resp, err := c.request(ctx).
		SetQueryParamsFromValues(values).
		SetResult(result).
		Get("/" + table)
	return c.check(resp, err)
}

// Update patches rows matching q and decodes the updated rows into result.
func (c *Client) Update(ctx context.Context, table string, q Query, patch any, result any) error {
	resp, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(q.Values()).
		SetBody(patch).
		SetResult(result).
		Patch("/" + table)
	return c.check(resp, err)
}

// Delete removes rows matching q and decodes the removed rows into result.
func (c *Client) Delete(ctx context.Context, table string, q Query, result any) error {
	resp, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(q.Values()).
		SetResult(result).
		Delete("/" + table)
	return c.check(resp, err)
}

func (c *Client) request(ctx context.Context) *resty.Request {
	token := accessTokenFromContext(ctx)
	if token == "" {
		token = c.apiKey
	}
	return c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetError(&APIError{})
}

func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil && apiErr.Message != "" {
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	message := strings.TrimSpace(resp.String())
	if message == "" {
		message = http.StatusText(resp.StatusCode())
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: message}
}
