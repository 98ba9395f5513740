package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseSortExpr(t *testing.T) {
	cases := []struct {
		sort string
		want string
	}{
		{"newest", "created_at DESC"},
		{"price_asc", "price ASC"},
		{"price_desc", "price DESC"},
		{"popular", "enrollment_count DESC"},
		{"title", "title ASC"},
		{"  Popular ", "enrollment_count DESC"},
		{"", "created_at DESC"},
		{"drop table courses", "created_at DESC"},
		{"created_at; --", "created_at DESC"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CourseSortExpr(tc.sort), "sort=%q", tc.sort)
	}
}
