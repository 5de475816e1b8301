package serp

import "strings"

// SERPDomain is the registrable domain of the search engine.
const SERPDomain = "naver.com"

const adRedirectPrefix = "ader."

// contentHosts serve user-generated content; links to them are results even
// though they live under the SERP domain.
var contentHosts = map[string]struct{}{
	"blog.naver.com":   {},
	"m.blog.naver.com": {},
	"post.naver.com":   {},
	"m.post.naver.com": {},
	"cafe.naver.com":   {},
	"m.cafe.naver.com": {},
	"in.naver.com":     {},
	"kin.naver.com":    {},
	"m.kin.naver.com":  {},
	"tv.naver.com":     {},
	"m.tv.naver.com":   {},
}

func onSERPDomain(host string) bool {
	return host == SERPDomain || strings.HasSuffix(host, "."+SERPDomain)
}

// IsAdRedirect reports whether host is an ad-tracking intermediary whose real
// destination must be read from its redirect response.
func IsAdRedirect(host string) bool {
	h := Hostname(host)
	return strings.HasPrefix(h, adRedirectPrefix) && onSERPDomain(h)
}

// IsContentHost reports whether host is one of the UGC subdomains that remain
// eligible as match targets.
func IsContentHost(host string) bool {
	_, ok := contentHosts[Hostname(host)]
	return ok
}

// IsNaverInternal reports whether host is search-engine chrome (navigation,
// "more results" links, etc.) rather than result content.
func IsNaverInternal(host string) bool {
	h := Hostname(host)
	return onSERPDomain(h) && !IsAdRedirect(h) && !IsContentHost(h)
}
