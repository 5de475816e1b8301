package serp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

const (
	walkSelector     = "h2, h3, .api_title, .api_title_area, a[href]"
	blockSelector    = "section, .api_subject_bx, [data-block-id]"
	areaAttr         = "data-cr-area"
	areaAttrSelector = "[data-cr-area]"
)

var onclickArea = regexp.MustCompile(`[?&'",\s(]a=([A-Za-z0-9_]+)`)

// Parser walks a SERP document in visual order and emits classified entries.
type Parser struct {
	resolver rank.RedirectResolver
	logger   *zap.Logger
}

// NewParser builds a Parser. A nil resolver leaves ad-redirect links unresolved.
func NewParser(resolver rank.RedirectResolver, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{resolver: resolver, logger: logger}
}

type heading struct {
	text  string
	block *html.Node
}

// Parse returns the page's result entries in document order. pageURL is used
// to resolve relative links.
func (p *Parser) Parse(ctx context.Context, pageURL string, body []byte) ([]rank.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse serp html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	var (
		entries []rank.Entry
		current heading
		walkErr error
		seen    = make(map[string]struct{})
	)
	doc.Find(walkSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) != "a" {
			if text := collapseSpace(s.Text()); text != "" {
				current = heading{text: text, block: blockOf(s)}
			}
			return true
		}
		if err := ctx.Err(); err != nil {
			walkErr = fmt.Errorf("parse serp: %w", err)
			return false
		}
		entry, ok := p.entryFor(ctx, base, s, current)
		if !ok {
			return true
		}
		key := entry.SectionName() + "\x00" + Normalize(entry.URL)
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		entries = append(entries, entry)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return entries, nil
}

func (p *Parser) entryFor(ctx context.Context, base *url.URL, s *goquery.Selection, h heading) (rank.Entry, bool) {
	code := areaCode(s)
	if code == "" {
		return rank.Entry{}, false
	}
	link, ok := absoluteLink(base, s.AttrOr("href", ""))
	if !ok {
		return rank.Entry{}, false
	}

	entry := rank.Entry{URL: link, AreaCode: code, Title: linkTitle(s)}
	if IsAdRedirect(link) {
		entry.OriginalURL = link
		if resolved, ok := p.resolve(ctx, link); ok {
			entry.URL = resolved
		} else {
			p.logger.Debug("ad redirect left unresolved", zap.String("url", link))
		}
	}
	if IsNaverInternal(entry.URL) {
		return rank.Entry{}, false
	}

	headingText := ""
	if h.block == blockOf(s) {
		headingText = h.text
	}
	if name, ok := Classify(code, headingText); ok {
		entry.Section = &name
	}
	return entry, true
}

func (p *Parser) resolve(ctx context.Context, link string) (string, bool) {
	if p.resolver == nil {
		return "", false
	}
	return p.resolver.Resolve(ctx, link)
}

func blockOf(s *goquery.Selection) *html.Node {
	block := s.Closest(blockSelector)
	if block.Length() == 0 {
		return nil
	}
	return block.Get(0)
}

func areaCode(s *goquery.Selection) string {
	if v, ok := s.Closest(areaAttrSelector).Attr(areaAttr); ok && strings.TrimSpace(v) != "" {
		return trimAreaCode(v)
	}
	if m := onclickArea.FindStringSubmatch(s.AttrOr("onclick", "")); m != nil {
		return trimAreaCode(m[1])
	}
	return ""
}

func trimAreaCode(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, ".*"); i >= 0 {
		code = code[:i]
	}
	return code
}

func absoluteLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func linkTitle(s *goquery.Selection) string {
	if title := collapseSpace(s.Text()); title != "" {
		return title
	}
	if title := collapseSpace(s.AttrOr("title", "")); title != "" {
		return title
	}
	return collapseSpace(s.AttrOr("aria-label", ""))
}
