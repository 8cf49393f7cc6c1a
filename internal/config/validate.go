package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/harunnryd/lcaflow/internal/errors"
)

var (
	validatorOnce   sync.Once
	recordValidator *validator.Validate
)

// structValidator reports failures under the env tag of the field so the
// operator sees the variable to fix.
func structValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.TrimSpace(fld.Tag.Get("env"))
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		recordValidator = v
	})
	return recordValidator
}

func validateRecord(record any) error {
	err := structValidator().Struct(record)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Wrap(err, "validate configuration")
	}
	fe := verrs[0]
	return errors.Invalid(fe.Field(), describeFieldError(fe))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "url", "http_url":
		return fmt.Sprintf("%q is not a valid URL", fmt.Sprint(fe.Value()))
	case "oneof":
		return fmt.Sprintf("%q is not one of [%s]", fmt.Sprint(fe.Value()), fe.Param())
	case "gt":
		return fmt.Sprintf("%v must be greater than %s", fe.Value(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%v must be at least %s", fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
