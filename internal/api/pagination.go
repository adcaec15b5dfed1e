package api

import (
	"math"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	defaultPageLimit = 6
	maxPageLimit     = 100
	// maxPageOffset keeps offsets and offset+limit within int32
	maxPageOffset = math.MaxInt32 - maxPageLimit
)

// pageParams is the resolved window plus how the client expressed it, so
// next/previous links use the same style.
type pageParams struct {
	service.PageRequest
	byPage bool
}

// parsePage reads limit and offset, or limit and a 1-based page number.
// Invalid values fall back to defaults.
func parsePage(c *gin.Context) pageParams {
	limit := defaultPageLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	p := pageParams{PageRequest: service.PageRequest{Limit: limit}}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			page = 1
		}
		if lastPage := maxPageOffset/limit + 1; page > lastPage {
			page = lastPage
		}
		p.Offset = (page - 1) * limit
		p.byPage = true
		return p
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		p.Offset = min(v, maxPageOffset)
	}
	return p
}

// absoluteURL resolves path against the request's scheme and host
func absoluteURL(c *gin.Context, path string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + path
}

func pageLink(c *gin.Context, p pageParams, offset int) *string {
	query := url.Values{}
	for k, v := range c.Request.URL.Query() {
		query[k] = v
	}
	query.Set("limit", strconv.Itoa(p.Limit))
	if p.byPage {
		query.Del("offset")
		query.Set("page", strconv.Itoa(offset/p.Limit+1))
	} else {
		query.Del("page")
		if offset > 0 {
			query.Set("offset", strconv.Itoa(offset))
		} else {
			query.Del("offset")
		}
	}

	link := absoluteURL(c, c.Request.URL.Path) + "?" + query.Encode()
	return &link
}

func newPage[T any](c *gin.Context, p pageParams, total int64, results []T) types.Page[T] {
	page := types.Page[T]{Count: total, Results: results}
	if page.Results == nil {
		page.Results = []T{}
	}

	if int64(p.Offset+p.Limit) < total {
		page.Next = pageLink(c, p, p.Offset+p.Limit)
	}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		page.Previous = pageLink(c, p, prev)
	}
	return page
}
