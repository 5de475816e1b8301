package serp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		code     string
		heading  string
		expected string
		ok       bool
	}{
		{"brand content code", "ugB_adR", "", BrandContentSection, true},
		{"table wins over heading", "nws_all", "아무 제목", "뉴스", true},
		{"view area without heading", "ugB_b2R", "", FallbackViewSection, true},
		{"view area with heading", "ugB_b2R", "인기글", "인기글", true},
		{"view area heading whitespace", "ugB_b3R", "  인기 \n 글 ", "인기 글", true},
		{"brand heading", "zzz", "신한 브랜드 콘텐츠", BrandContentSection, true},
		{"heading verbatim", "zzz", "함께 많이 찾는", "함께 많이 찾는", true},
		{"two digit view area is not the pattern", "ugB_b12R", "", "", false},
		{"unclassifiable", "zzz", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Classify(tc.code, tc.heading)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}
