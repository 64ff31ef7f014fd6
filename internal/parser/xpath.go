package parser

import (
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// XPathParser extracts data using XPath expressions.
type XPathParser struct {
	logger *slog.Logger
}

// NewXPathParser creates a new XPath parser.
func NewXPathParser(logger *slog.Logger) *XPathParser {
	return &XPathParser{
		logger: logger.With("component", "xpath_parser"),
	}
}

// Extract implements Parser for XPath rules.
func (p *XPathParser) Extract(resp *types.Response, rule config.ParseRule) ([]string, error) {
	tree, err := resp.Tree()
	if err != nil {
		return nil, &types.ParseError{URL: responseURL(resp), Selector: rule.Selector, Err: err}
	}

	nodes, err := htmlquery.QueryAll(tree, rule.Selector)
	if err != nil {
		return nil, &types.ParseError{URL: responseURL(resp), Selector: rule.Selector, Err: err}
	}

	values := make([]string, 0, len(nodes))
	for _, node := range nodes {
		val := selectValue(rule.Attribute,
			func() string { return strings.TrimSpace(htmlquery.InnerText(node)) },
			func() string { return htmlquery.OutputHTML(node, false) },
			func() string { return htmlquery.OutputHTML(node, true) },
			func(name string) string { return htmlquery.SelectAttr(node, name) },
		)
		if val != "" || rule.KeepEmpty {
			values = append(values, val)
		}
	}

	p.logger.Debug("xpath extracted", "rule", rule.Name, "matches", len(nodes), "values", len(values))
	return values, nil
}

func responseURL(resp *types.Response) string {
	if resp.Request == nil {
		return resp.FinalURL
	}
	return resp.Request.URLString()
}
