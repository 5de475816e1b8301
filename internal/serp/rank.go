package serp

import "github.com/JakeFAU/naver-rank-tracker/internal/rank"

// Position is an entry's 1-based place on the page and within its section.
// Section is zero for unclassified entries: they occupy a visual slot on the
// page but belong to no section.
type Position struct {
	Overall int
	Section int
}

// Positions numbers entries in one pass. Each section keeps its own counter,
// so a section interrupted by another continues where it left off.
func Positions(entries []rank.Entry) []Position {
	counters := make(map[string]int)
	out := make([]Position, len(entries))
	for i, e := range entries {
		out[i].Overall = i + 1
		if name := e.SectionName(); name != "" {
			counters[name]++
			out[i].Section = counters[name]
		}
	}
	return out
}

// SiteRank returns the first entry whose hostname equals the site's hostname.
// It reports false when the site is not on the page.
func SiteRank(entries []rank.Entry, siteURL string) (rank.SiteRank, bool) {
	want := Hostname(siteURL)
	if want == "" {
		return rank.SiteRank{}, false
	}
	for i, e := range entries {
		if Hostname(e.URL) != want {
			continue
		}
		return rank.SiteRank{
			Rank:    i + 1,
			URL:     e.URL,
			Title:   e.Title,
			Section: e.SectionName(),
		}, true
	}
	return rank.SiteRank{}, false
}

// TrackURL looks for the exact target URL on the page. section, when
// non-empty, is the section the caller expects the URL in; SectionExists
// reports whether that section appears at all, independent of a match.
func TrackURL(entries []rank.Entry, targetURL, section string) rank.URLTrack {
	var out rank.URLTrack
	target := Normalize(targetURL)
	positions := Positions(entries)
	for i, e := range entries {
		name := e.SectionName()
		if section != "" && name == section {
			out.SectionExists = true
		}
		if out.IsExposed || target == "" || Normalize(e.URL) != target {
			continue
		}
		out.IsExposed = true
		out.OverallRank = intPtr(positions[i].Overall)
		if name != "" {
			out.FoundInSection = stringPtr(name)
			out.SectionRank = intPtr(positions[i].Section)
		}
	}
	if section == "" {
		out.SectionExists = out.FoundInSection != nil
	}
	return out
}

func intPtr(v int) *int { return &v }

func stringPtr(v string) *string { return &v }
