package browser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const indexRefPrefix = "@"

// ParseControls extracts the controls matching sel from a rendered HTML
// document, preserving document order. Controls with an id get a ref that is
// a CSS attribute selector; the rest fall back to their position.
func ParseControls(html string, sel ControlSelector) ([]Control, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var out []Control
	doc.Find(sel.Control).Each(func(i int, s *goquery.Selection) {
		label := ""
		if sel.Label != "" {
			label = strings.TrimSpace(s.Find(sel.Label).First().Text())
		}
		if label == "" {
			label = strings.Join(strings.Fields(s.Text()), " ")
		}
		out = append(out, Control{Label: label, Ref: refFor(sel.Control, s, i)})
	})
	return out, nil
}

func refFor(controlSel string, s *goquery.Selection, i int) ControlRef {
	if id, ok := s.Attr("id"); ok && id != "" {
		return ControlRef(fmt.Sprintf(`%s[id="%s"]`, controlSel, strings.ReplaceAll(id, `"`, `\"`)))
	}
	return ControlRef(indexRefPrefix + strconv.Itoa(i))
}

// refIndex returns the position encoded in an index ref.
func refIndex(ref ControlRef) (int, bool) {
	s := string(ref)
	if !strings.HasPrefix(s, indexRefPrefix) {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimPrefix(s, indexRefPrefix))
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
