package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// CSSParser extracts data using CSS selectors via goquery.
type CSSParser struct {
	logger *slog.Logger
}

// NewCSSParser creates a new CSS selector parser.
func NewCSSParser(logger *slog.Logger) *CSSParser {
	return &CSSParser{
		logger: logger.With("component", "css_parser"),
	}
}

// Extract implements Parser for CSS rules. The selector is compiled up front
// because goquery treats an invalid selector as matching nothing.
func (p *CSSParser) Extract(resp *types.Response, rule config.ParseRule) ([]string, error) {
	matcher, err := cascadia.Compile(rule.Selector)
	if err != nil {
		return nil, &types.ParseError{URL: responseURL(resp), Selector: rule.Selector, Err: err}
	}

	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: responseURL(resp), Selector: rule.Selector, Err: err}
	}

	var values []string
	doc.FindMatcher(matcher).Each(func(i int, sel *goquery.Selection) {
		val := selectValue(rule.Attribute,
			func() string { return strings.TrimSpace(sel.Text()) },
			func() string { s, _ := sel.Html(); return s },
			func() string { s, _ := goquery.OuterHtml(sel); return s },
			func(name string) string { s, _ := sel.Attr(name); return s },
		)
		if val != "" || rule.KeepEmpty {
			values = append(values, val)
		}
	})

	p.logger.Debug("css extracted", "rule", rule.Name, "values", len(values))
	return values, nil
}
