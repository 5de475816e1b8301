package serp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

func entry(url, section string) rank.Entry {
	e := rank.Entry{URL: url, Title: "title " + url}
	if section != "" {
		e.Section = &section
	}
	return e
}

func TestPositionsPerSectionCounters(t *testing.T) {
	t.Parallel()

	entries := []rank.Entry{
		entry("https://a1.com", "A"),
		entry("https://a2.com", "A"),
		entry("https://b1.com", "B"),
		entry("https://a3.com", "A"),
	}
	positions := Positions(entries)

	var overall, section []int
	for _, p := range positions {
		overall = append(overall, p.Overall)
		section = append(section, p.Section)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, overall)
	assert.Equal(t, []int{1, 2, 1, 3}, section)
}

func TestPositionsUnclassifiedTakesGlobalSlotOnly(t *testing.T) {
	t.Parallel()

	positions := Positions([]rank.Entry{
		entry("https://a1.com", "A"),
		entry("https://x.com", ""),
		entry("https://a2.com", "A"),
	})
	assert.Equal(t, []Position{{1, 1}, {2, 0}, {3, 2}}, positions)
}

func TestSiteRank(t *testing.T) {
	t.Parallel()

	entries := []rank.Entry{
		entry("https://other.com/", "웹사이트"),
		entry("https://www.Example.com/page", "VIEW"),
		entry("https://example.com/second", "VIEW"),
	}

	got, ok := SiteRank(entries, "http://example.com/")
	require.True(t, ok)
	assert.Equal(t, 2, got.Rank)
	assert.Equal(t, "https://www.Example.com/page", got.URL)
	assert.Equal(t, "VIEW", got.Section)

	_, ok = SiteRank(entries, "missing.com")
	assert.False(t, ok)

	_, ok = SiteRank(entries, "")
	assert.False(t, ok)
}

func TestSiteRankDoesNotMatchSubdomains(t *testing.T) {
	t.Parallel()

	_, ok := SiteRank([]rank.Entry{entry("https://shop.example.com", "")}, "example.com")
	assert.False(t, ok)
}

func TestTrackURLFound(t *testing.T) {
	t.Parallel()

	entries := []rank.Entry{
		entry("https://a1.com", "VIEW"),
		entry("https://b1.com", "뉴스"),
		entry("https://a2.com", "VIEW"),
		entry("https://www.target.com/post/", "VIEW"),
	}

	got := TrackURL(entries, "target.com/post", "VIEW")
	assert.True(t, got.IsExposed)
	assert.True(t, got.SectionExists)
	require.NotNil(t, got.OverallRank)
	assert.Equal(t, 4, *got.OverallRank)
	require.NotNil(t, got.SectionRank)
	assert.Equal(t, 3, *got.SectionRank)
	require.NotNil(t, got.FoundInSection)
	assert.Equal(t, "VIEW", *got.FoundInSection)
}

func TestTrackURLNotExposedButSectionExists(t *testing.T) {
	t.Parallel()

	entries := []rank.Entry{
		entry("https://a1.com", "VIEW"),
		entry("https://b1.com", "뉴스"),
	}

	got := TrackURL(entries, "https://target.com/post", "VIEW")
	assert.False(t, got.IsExposed)
	assert.True(t, got.SectionExists)
	assert.Nil(t, got.SectionRank)
	assert.Nil(t, got.OverallRank)
	assert.Nil(t, got.FoundInSection)
}

func TestTrackURLExactMatchOnly(t *testing.T) {
	t.Parallel()

	entries := []rank.Entry{entry("https://target.com/post/123", "VIEW")}
	got := TrackURL(entries, "https://target.com/post", "")
	assert.False(t, got.IsExposed)
	assert.False(t, got.SectionExists)
}

func TestTrackURLFoundInOtherSection(t *testing.T) {
	t.Parallel()

	entries := []rank.Entry{
		entry("https://a1.com", "뉴스"),
		entry("https://target.com", "뉴스"),
	}
	got := TrackURL(entries, "target.com", "VIEW")
	assert.True(t, got.IsExposed)
	assert.False(t, got.SectionExists)
	assert.Equal(t, "뉴스", *got.FoundInSection)
	assert.Equal(t, 2, *got.SectionRank)
}

func TestTrackURLWithoutRequestedSection(t *testing.T) {
	t.Parallel()

	got := TrackURL([]rank.Entry{entry("https://x.com", ""), entry("https://target.com", "")}, "target.com", "")
	assert.True(t, got.IsExposed)
	assert.False(t, got.SectionExists)
	assert.Equal(t, 2, *got.OverallRank)
	assert.Nil(t, got.SectionRank)
}
