package funnel

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litfunnel/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Author         []CSLName `yaml:"author,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes the final funnel results as a CSL-YAML list to w.
func FormatCSL(result types.FunnelResult, w io.Writer) error {
	items := make([]CSLItem, len(result.Results))
	for i, c := range result.Results {
		items[i] = toCSLItem(c.Candidate)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a candidate to a CSLItem.
func toCSLItem(c types.Candidate) CSLItem {
	item := CSLItem{
		ID:             c.Identifier,
		Type:           "article",
		Title:          c.Title,
		ContainerTitle: c.Venue,
		Abstract:       c.Abstract,
		URL:            c.URL,
	}
	if c.Venue != "" {
		item.Type = "article-journal"
	}

	for _, a := range c.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if c.Year != 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{c.Year}}}
	}

	// Set DOI if the identifier looks like one.
	if strings.HasPrefix(c.Identifier, "10.") {
		item.DOI = c.Identifier
	}

	return item
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
