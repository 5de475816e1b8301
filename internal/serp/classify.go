package serp

import (
	"regexp"
	"strings"
)

// FallbackViewSection groups the numbered VIEW sub-areas when the page gives
// them no more specific heading.
const FallbackViewSection = "VIEW"

// BrandContentSection is the normalized label for branded content blocks.
const BrandContentSection = "브랜드콘텐츠"

const brandContentHeading = "브랜드 콘텐츠"

var areaSections = map[string]string{
	"ugB_adR": BrandContentSection,
	"ugB_bsR": BrandContentSection,
	"ugB_pwR": "인플루언서",
	"ugB_ipR": "인플루언서",
	"ugB_qpR": FallbackViewSection,
	"ugB_qbR": FallbackViewSection,
	"nws_all": "뉴스",
	"nws_ugc": "뉴스",
	"nws":     "뉴스",
	"web_gen": "웹사이트",
	"web":     "웹사이트",
	"ink_kin": "지식iN",
	"kin":     "지식iN",
	"blg":     "블로그",
	"blg_blg": "블로그",
	"caf":     "카페",
	"cafe":    "카페",
	"pwl_nop": "파워링크",
	"pwl":     "파워링크",
	"shp_gui": "쇼핑",
	"shp":     "쇼핑",
	"img":     "이미지",
	"vid":     "동영상",
	"tvc":     "동영상",
	"plc":     "플레이스",
}

var viewAreaPattern = regexp.MustCompile(`^ugB_b\dR$`)

// Classify maps a block's area code and its nearest preceding heading to a
// section name. It reports false when the block cannot be classified.
func Classify(areaCode, heading string) (string, bool) {
	heading = collapseSpace(heading)
	if name, ok := areaSections[areaCode]; ok {
		return name, true
	}
	if viewAreaPattern.MatchString(areaCode) {
		if heading != "" {
			return heading, true
		}
		return FallbackViewSection, true
	}
	if strings.Contains(heading, brandContentHeading) {
		return BrandContentSection, true
	}
	if heading != "" {
		return heading, true
	}
	return "", false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
