package types

import (
	"fmt"
	"strings"
)

// ResultType is the category of search being performed. It selects both the
// search query parameter and the extraction rule.
type ResultType string

// Canonical result types. Input is matched case-insensitively by
// ParseResultType; everything downstream uses these values.
const (
	Repositories ResultType = "Repositories"
	Issues       ResultType = "Issues"
	Wikis        ResultType = "Wikis"
)

// ResultTypes lists every supported result type.
var ResultTypes = []ResultType{Repositories, Issues, Wikis}

// ParseResultType maps a case-insensitive name onto its canonical ResultType.
func ParseResultType(s string) (ResultType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "repositories":
		return Repositories, nil
	case "issues":
		return Issues, nil
	case "wikis":
		return Wikis, nil
	case "":
		return "", fmt.Errorf("type is required (repositories, issues or wikis)")
	default:
		return "", fmt.Errorf("type %q unsupported, only repositories, issues or wikis", s)
	}
}

func (t ResultType) String() string { return string(t) }

// LanguageStats maps a language name to its share of the repository in percent.
type LanguageStats map[string]float64

// RecordExtra holds the repository-only details of a record.
type RecordExtra struct {
	Owner         string        `json:"owner"          bson:"owner"`
	LanguageStats LanguageStats `json:"language_stats" bson:"language_stats"`
}

// ResultRecord is the unit written to the output document.
// Extra is set only for repository results.
type ResultRecord struct {
	URL   string       `json:"url"             bson:"url"`
	Extra *RecordExtra `json:"extra,omitempty" bson:"extra,omitempty"`
}
