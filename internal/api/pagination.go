package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pageParams are the page-number pagination query parameters.
type pageParams struct {
	Page  int
	Limit int
}

func pagination(c *gin.Context, defaultLimit int) pageParams {
	params := pageParams{Page: 1, Limit: defaultLimit}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		params.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		params.Limit = v
	}
	return params
}

// pageResponse is the paginated listing envelope.
type pageResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

func newPageResponse(c *gin.Context, count int64, params pageParams, results interface{}) pageResponse {
	resp := pageResponse{Count: count, Results: results}

	lastPage := int((count + int64(params.Limit) - 1) / int64(params.Limit))
	if params.Page < lastPage {
		resp.Next = pageURL(c.Request.URL, params.Page+1)
	}
	if params.Page > 1 {
		resp.Previous = pageURL(c.Request.URL, params.Page-1)
	}
	return resp
}

func pageURL(u *url.URL, page int) *string {
	copied := *u
	q := copied.Query()
	q.Set("page", strconv.Itoa(page))
	copied.RawQuery = q.Encode()
	s := copied.String()
	return &s
}
