package locator

import (
	"fmt"
	"strings"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
)

// FullXPath builds the absolute structural path of el, for example
// /html/body[1]/div[2]/button[1]. Every segment but html carries its 1-based
// index among same-tag siblings. Name tests are lower case, which is how
// HTML documents match element names in XPath.
func FullXPath(el ports.Element) entity.Locator {
	if el == nil || !el.IsConnected() {
		return ""
	}

	var segments []string
	for cur := el; cur != nil; cur = cur.Parent() {
		tag := strings.ToLower(cur.TagName())
		if tag == "" {
			break
		}
		if tag == "html" {
			segments = append(segments, "html")
			break
		}
		segments = append(segments, fmt.Sprintf("%s[%d]", tag, indexAmongSameTag(cur)))
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return entity.Locator("/" + strings.Join(segments, "/"))
}
