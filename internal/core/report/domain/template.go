package domain

import (
	"fmt"
	"regexp"
)

// Template is a saved report.
type Template struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Request     `yaml:",inline"`
}

// Overrides adjust a template for a single run. Filters are appended to the
// template's filters; a non-empty Sort replaces the template's ordering.
type Overrides struct {
	Filters []FilterSpec `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sort    SortList     `json:"sort,omitempty" yaml:"sort,omitempty"`
}

var templateName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateTemplateName rejects names that are unsafe as file names.
func ValidateTemplateName(name string) error {
	if !templateName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTemplateName, name)
	}
	return nil
}

// Resolve returns the template's request with overrides applied.
func (t *Template) Resolve(o Overrides) Request {
	req := t.Request.Clone()
	req.Filters = append(req.Filters, o.Filters...)
	if len(o.Sort) > 0 {
		req.Sort = append(SortList(nil), o.Sort...)
	}
	return req
}
