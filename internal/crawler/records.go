package crawler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/IshaanNene/ghcrawler/internal/fetcher"
	"github.com/IshaanNene/ghcrawler/internal/types"
)

var (
	errLabelShape   = errors.New(`want "<language> <percentage>"`)
	errNotFinite    = errors.New("percentage must be a finite number")
	errMissingOwner = errors.New("path has no owner segment")
)

// BuildRecords turns search paths into records in input order. Only
// repositories are enriched, one page fetch per path.
func (c *Crawler) BuildRecords(ctx context.Context, paths []string, rt types.ResultType, proxy *fetcher.ProxyOption) ([]types.ResultRecord, error) {
	records := make([]types.ResultRecord, 0, len(paths))
	for _, path := range paths {
		rec := types.ResultRecord{URL: c.pageURL(path)}

		if rt == types.Repositories {
			extra, err := c.repositoryExtra(ctx, path, proxy)
			if err != nil {
				return nil, err
			}
			rec.Extra = extra
		}
		records = append(records, rec)
	}

	c.metrics.ObserveRecords(rt.String(), len(records))
	return records, nil
}

func (c *Crawler) repositoryExtra(ctx context.Context, path string, proxy *fetcher.ProxyOption) (*types.RecordExtra, error) {
	owner, err := Owner(path)
	if err != nil {
		return nil, &types.ParseError{URL: c.pageURL(path), Err: err}
	}

	labels, err := c.LanguageLabels(ctx, path, proxy)
	if err != nil {
		return nil, err
	}

	stats := make(types.LanguageStats, len(labels))
	for _, label := range labels {
		lang, pct, err := ParseLanguageLabel(label)
		if err != nil {
			var le *types.LanguageLabelParseError
			if errors.As(err, &le) {
				le.Path = path
			}
			return nil, err
		}
		stats[lang] = pct
	}
	c.metrics.ObserveLanguages(len(labels))

	return &types.RecordExtra{Owner: owner, LanguageStats: stats}, nil
}

// Owner returns the second "/"-separated segment of a site-relative path,
// so "/atuldjadhav/DropBox-Cloud-Storage" is owned by "atuldjadhav".
func Owner(path string) (string, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("%w: %q", errMissingOwner, path)
	}
	return parts[1], nil
}

// ParseLanguageLabel splits "CSS 52.0" into ("CSS", 52.0). The label must be
// exactly two whitespace-separated tokens and the second must be a finite
// number, since NaN and Inf cannot be exported.
func ParseLanguageLabel(label string) (string, float64, error) {
	fields := strings.Fields(label)
	if len(fields) != 2 {
		return "", 0, &types.LanguageLabelParseError{Label: label, Err: errLabelShape}
	}

	pct, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, &types.LanguageLabelParseError{Label: label, Err: err}
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return "", 0, &types.LanguageLabelParseError{Label: label, Err: errNotFinite}
	}
	return fields[0], pct, nil
}
