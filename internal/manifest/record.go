package manifest

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Record holds the parameters of a create-repository request. Field order is
// the order fields are rendered in; the doc tag is the comment shown next to
// each field in the editable document.
type Record struct {
	Name              string `json:"name" validate:"required,max=100,reponame" doc:"Repository name: letters, digits, '.', '-' and '_'"`
	Description       string `json:"description" doc:"Short description shown on the repository page"`
	Homepage          string `json:"homepage" validate:"omitempty,url" doc:"URL with more information about the repository"`
	Private           bool   `json:"private" doc:"true creates a private repository"`
	HasIssues         bool   `json:"has_issues" doc:"Enable the issue tracker"`
	HasWiki           bool   `json:"has_wiki" doc:"Enable the wiki"`
	HasDownloads      bool   `json:"has_downloads" doc:"Enable downloads"`
	AutoInit          bool   `json:"auto_init" doc:"Create an initial commit with an empty README"`
	GitignoreTemplate string `json:"gitignore_template" doc:"Name of a .gitignore template, e.g. \"Go\" (empty for none)"`
	LicenseTemplate   string `json:"license_template" doc:"License keyword, e.g. \"mit\" or \"apache-2.0\" (empty for none)"`
}

// Default returns the record offered to the user when nothing else is known.
func Default() Record {
	return Record{
		Name:      "repo-name",
		HasIssues: true,
		AutoInit:  true,
	}
}

// WithName returns a copy of r using name, unless name is empty.
func (r Record) WithName(name string) Record {
	if name != "" {
		r.Name = name
	}
	return r
}

var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("reponame", func(fl validator.FieldLevel) bool {
		return repoNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks r against the constraints GitHub enforces on creation.
func Validate(r Record) error {
	return validate.Struct(&r)
}
