package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/repairshop/backend/internal/interfaces/http/dto"
)

var (
	setupValidatorOnce sync.Once
	// jsonNames maps Go field names to the json (or form) keys seen while tagging structs, so
	// cross-field rules can name the other field the way clients spell it
	jsonNames sync.Map
)

// SetupValidator makes binding errors name fields by their json (or form) key. Safe to call
// more than once.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := tagName(fld)
			if name != "" {
				jsonNames.Store(fld.Name, name)
			}
			return name
		})
	})
}

func tagName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// FormatValidationErrors builds the 400 body for a failed bind. Field errors become details;
// anything else (bad JSON, a non-numeric amount) is reported as a malformed body.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Malformed request body", requestID, nil)
	}

	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: validationMessage(fe)}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError answers 400 with the formatted bind error
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

var validationMessages = map[string]string{
	"required":         "This field is required",
	"uuid":             "Invalid UUID format",
	"oneof":            "Must be one of: %s",
	"len":              "Must be exactly %s characters",
	"gt":               "Must be greater than %s",
	"gte":              "Must be greater than or equal to %s",
	"lt":               "Must be less than %s",
	"lte":              "Must be less than or equal to %s",
	"numeric":          "Must be numeric",
	"required_without": "Required when %s is not set",
	"nefield":          "Must differ from %s",
}

// crossFieldTags take another field's Go name as their param
var crossFieldTags = map[string]bool{
	"nefield":          true,
	"eqfield":          true,
	"required_without": true,
	"required_with":    true,
}

func param(fe validator.FieldError) string {
	if !crossFieldTags[fe.Tag()] {
		return fe.Param()
	}
	if name, ok := jsonNames.Load(fe.Param()); ok {
		return name.(string)
	}
	return fe.Param()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return "Must be " + bound + " " + fe.Param() + " characters"
		}
		return "Must be " + bound + " " + fe.Param()
	}
	msg, ok := validationMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	return strings.Replace(msg, "%s", param(fe), 1)
}
