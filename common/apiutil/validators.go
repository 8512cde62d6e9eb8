package apiutil

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidatorTagNames makes the binding validator report field names
// from the json (or form) struct tag instead of the Go field name.
func RegisterValidatorTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
}

// BindingErrorDetails flattens a binding error into the details payload of an
// ErrorResponse. Struct validation failures become one entry per offending
// field; any other error (malformed JSON, type mismatch) is reported as its
// message.
func BindingErrorDetails(err error) interface{} {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]gin.H, 0, len(fieldErrs))
		for _, fieldErr := range fieldErrs {
			detail := gin.H{
				"field": fieldErr.Field(),
				"rule":  fieldErr.Tag(),
			}
			if fieldErr.Param() != "" {
				detail["param"] = fieldErr.Param()
			}
			details = append(details, detail)
		}
		return details
	}
	return err.Error()
}
