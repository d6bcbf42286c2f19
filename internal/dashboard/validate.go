package dashboard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator, reporting JSON field names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Issue is a structural problem found in one element.
type Issue struct {
	ElementID string `json:"elementId"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s %s", i.ElementID, i.Field, i.Message)
}

// Validate checks every element and reports issues without rejecting the
// spec; the engine degrades malformed elements on its own.
func (s *Spec) Validate() []Issue {
	if s == nil {
		return nil
	}
	var issues []Issue
	ids := map[string]bool{}
	for i, e := range s.Elements {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("#%d", i)
		}
		if e.ID != "" && ids[e.ID] {
			issues = append(issues, Issue{ElementID: id, Field: "id", Message: "is duplicated"})
		}
		ids[e.ID] = true
		issues = append(issues, e.Validate(id)...)
	}
	return issues
}

// Validate checks one element against its type's input contract.
func (e ElementSpec) Validate(id string) []Issue {
	var issues []Issue
	if err := Validator().Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				issues = append(issues, Issue{ElementID: id, Field: fieldPath(fe), Message: "failed " + fe.Tag()})
			}
		}
	}
	switch {
	case e.Type == ScatterPlot && len(e.Metrics) < 2:
		issues = append(issues, Issue{ElementID: id, Field: "metrics", Message: "needs an X and a Y metric"})
	case e.Type != KPI && e.Type != "" && len(e.Metrics) == 0:
		issues = append(issues, Issue{ElementID: id, Field: "metrics", Message: "is empty"})
	}
	keys := map[string]bool{}
	for _, m := range e.Metrics {
		if keys[m.Key()] {
			issues = append(issues, Issue{ElementID: id, Field: "metrics", Message: fmt.Sprintf("output key %q is used twice", m.Key())})
		}
		keys[m.Key()] = true
	}
	return issues
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
