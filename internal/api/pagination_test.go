package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextFor(target string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		target string
		limit  int
		offset int
	}{
		{"/api/recipes", defaultPageLimit, 0},
		{"/api/recipes?limit=10&offset=20", 10, 20},
		{"/api/recipes?limit=1000", maxPageLimit, 0},
		{"/api/recipes?limit=-3&offset=-1", defaultPageLimit, 0},
		{"/api/recipes?limit=5&page=3", 5, 10},
		{"/api/recipes?page=zero", defaultPageLimit, 0},
		{"/api/recipes?page=9223372036854775807", defaultPageLimit, (maxPageOffset / defaultPageLimit) * defaultPageLimit},
		{"/api/recipes?limit=100&page=9223372036854775807", maxPageLimit, (maxPageOffset / maxPageLimit) * maxPageLimit},
		{"/api/recipes?offset=9223372036854775807", defaultPageLimit, maxPageOffset},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			p := parsePage(contextFor(tt.target))
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestHugePageStaysPositive(t *testing.T) {
	c := contextFor("/api/recipes?page=9223372036854775807")
	p := parsePage(c)
	require.Positive(t, p.Offset)

	page := newPage(c, p, 3, []int{})
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
}

func TestNewPageLinks(t *testing.T) {
	c := contextFor("/api/recipes?tags=lunch&limit=2&offset=2")
	p := parsePage(c)

	page := newPage(c, p, 5, []int{3, 4})
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/recipes?limit=2&offset=4&tags=lunch", *page.Next)
	assert.Equal(t, "http://example.com/api/recipes?limit=2&tags=lunch", *page.Previous)

	empty := newPage[int](c, parsePage(contextFor("/api/recipes")), 0, nil)
	assert.NotNil(t, empty.Results)
	assert.Nil(t, empty.Next)
	assert.Nil(t, empty.Previous)
}
