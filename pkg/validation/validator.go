package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in error details.
// - Registers alias tags for common validations.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterAlias("pwd", "min=8")
		v.RegisterAlias("todostatus", "oneof=pending in_progress completed")
		v.RegisterAlias("todopriority", "oneof=low medium high")
		v.RegisterAlias("todofrequency", "oneof=daily weekly monthly")
	}
}

// ToDetails converts validation/binding errors into a map[field]message
// suitable for the API error.details payload.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "pwd", "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + orDefault(param, "8") + " characters"
		}
		return "must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + param + " characters"
		}
		return "must be at most " + param
	case "oneof", "todostatus", "todopriority", "todofrequency":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	case "uuid":
		return "must be a valid uuid"
	case "datetime":
		return "must be a valid timestamp"
	case "dive":
		return "contains an invalid element"
	default:
		return "is invalid"
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
