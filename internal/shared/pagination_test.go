package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	_ "github.com/bookward/bookward/testing"
)

func TestParseLimitOffset(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 10, 0},
		{"explicit", "limit=25&offset=50", 25, 50},
		{"capped", "limit=500", 100, 0},
		{"zero limit falls back", "limit=0", 10, 0},
		{"negative values fall back", "limit=-5&offset=-3", 10, 0},
		{"garbage falls back", "limit=ten&offset=two", 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			assert.NoError(t, err)
			limit, offset := ParseLimitOffset(q)
			assert.Equal(t, tc.wantLimit, limit)
			assert.Equal(t, tc.wantOffset, offset)
		})
	}
}
