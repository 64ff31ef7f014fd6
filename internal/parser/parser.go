package parser

import (
	"github.com/IshaanNene/ghcrawler/internal/config"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

// Parser extracts string values from a fetched response.
type Parser interface {
	// Extract applies a single rule and returns the matched values in
	// document order. An invalid selector is a *types.ParseError.
	Extract(resp *types.Response, rule config.ParseRule) ([]string, error)
}

// selectValue picks the value a rule asks for from one matched node.
func selectValue(attribute string, text, inner, outer func() string, attr func(string) string) string {
	switch attribute {
	case "", "text":
		return text()
	case "html", "innerHTML":
		return inner()
	case "outerHTML":
		return outer()
	default:
		return attr(attribute)
	}
}
