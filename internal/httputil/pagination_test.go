package httputil_test

import (
	"math"
	"net/http/httptest"
	"testing"

	"tutoring-service/internal/httputil"

	"github.com/stretchr/testify/assert"
)

func TestPageParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"Defaults", "", 1, 10},
		{"Explicit", "?page=3&limit=25", 3, 25},
		{"Malformed", "?page=abc&limit=-4", 1, 10},
		{"CappedLimit", "?limit=1000", 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/sessions"+tt.query, nil)
			page, limit := httputil.PageParams(req)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestPageParams_HugePage(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/sessions?page=922337203685477581&limit=100", nil)
	page, limit := httputil.PageParams(req)

	assert.Equal(t, 100, limit)
	assert.Equal(t, math.MaxInt/100, page)
	assert.GreaterOrEqual(t, httputil.Offset(page, limit), 0)
}

func TestOffset_Saturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, httputil.Offset(math.MaxInt, 100))
	assert.Equal(t, 0, httputil.Offset(5, 0))
}

func TestNewPage(t *testing.T) {
	p := httputil.NewPage[string](nil, 21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 20, httputil.Offset(3, 10))
	assert.Equal(t, 0, httputil.Offset(0, 10))
}
