package evaluation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/translation-arena/backend/internal/models"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput checks the submission invariants and reports every violation as a
// single *models.ValidationError.
func validateInput(v *validator.Validate, in models.SubmissionInput) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &models.ValidationError{Errors: []string{err.Error()}}
	}

	var msgs []string
	seen := make(map[string]bool)
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fe.Field() + " is required"
		case "required_without":
			msg = "source_text or reference_text is required"
		default:
			msg = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
		}
		if !seen[msg] {
			seen[msg] = true
			msgs = append(msgs, msg)
		}
	}
	return &models.ValidationError{Errors: msgs}
}
