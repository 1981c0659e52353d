package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit      int
	StartIndex int
}

// FromContext extracts pagination parameters from the echo context. The
// directory endpoints use limit/startIndex query parameters.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	start, _ := strconv.Atoi(c.QueryParam("startIndex"))
	if start < 0 {
		start = 0
	}

	return Params{Limit: limit, StartIndex: start}
}

// Response is the list envelope every directory endpoint returns.
type Response struct {
	Results    interface{} `json:"results"`
	TotalCount int         `json:"totalCount"`
}

func NewResponse(results interface{}, total int) *Response {
	return &Response{Results: results, TotalCount: total}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.StartIndex+p.Limit < total
}

// NextStart returns the start index of the next page.
func (p Params) NextStart() int {
	return p.StartIndex + p.Limit
}
