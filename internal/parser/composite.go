package parser

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// CompositeParser delegates to the XPath or CSS parser based on rule type.
type CompositeParser struct {
	css    *CSSParser
	xpath  *XPathParser
	logger *slog.Logger
}

// NewCompositeParser creates a parser that handles XPath and CSS rules.
func NewCompositeParser(logger *slog.Logger) *CompositeParser {
	return &CompositeParser{
		css:    NewCSSParser(logger),
		xpath:  NewXPathParser(logger),
		logger: logger.With("component", "composite_parser"),
	}
}

// Extract implements Parser.
func (p *CompositeParser) Extract(resp *types.Response, rule config.ParseRule) ([]string, error) {
	switch rule.Type {
	case "xpath":
		return p.xpath.Extract(resp, rule)
	case "css":
		return p.css.Extract(resp, rule)
	default:
		return nil, &types.ParseError{
			URL:      responseURL(resp),
			Selector: rule.Selector,
			Err:      fmt.Errorf("%w: %q", types.ErrUnknownSelector, rule.Type),
		}
	}
}
