package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"taskmanager/internal/core/model/response"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())
	Validator.RegisterTagNameFunc(jsonFieldName)

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	addCustomTranslations()
}

func addCustomTranslations() {
	Validator.RegisterTranslation("required", Translator, func(ut ut.Translator) error {
		return ut.Add("required", "{0} is required", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("required", getFieldName(fe.Field()))
		return t
	})

	Validator.RegisterTranslation("oneof", Translator, func(ut ut.Translator) error {
		return ut.Add("oneof", "{0} must be one of: {1}", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("oneof", getFieldName(fe.Field()), strings.ReplaceAll(fe.Param(), " ", ", "))
		return t
	})
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]

	if name == "-" {
		return ""
	}

	if name == "" {
		return field.Name
	}

	return name
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"title":         "Title",
		"description":   "Description",
		"due_date":      "Due date",
		"priority":      "Priority",
		"name":          "Name",
		"email":         "Email",
		"password":      "Password",
		"refresh_token": "Refresh token",
	}

	if name, exists := fieldNames[field]; exists {
		return name
	}

	return field
}

// FormatValidationErrors turns validator and JSON decoding failures into the
// field/message pairs of the error envelope.
func FormatValidationErrors(err error) []response.ValidationError {
	var (
		validationErrors validator.ValidationErrors
		typeError        *json.UnmarshalTypeError
		syntaxError      *json.SyntaxError
	)

	switch {
	case errors.As(err, &validationErrors):
		fields := make([]response.ValidationError, 0, len(validationErrors))

		for _, fieldError := range validationErrors {
			fields = append(fields, response.ValidationError{
				Field:   fieldError.Field(),
				Message: fieldError.Translate(Translator),
			})
		}

		return fields
	case errors.As(err, &typeError):
		return []response.ValidationError{{
			Field:   typeError.Field,
			Message: "must be a " + typeError.Type.String(),
		}}
	case errors.As(err, &syntaxError):
		return []response.ValidationError{{Field: "body", Message: "malformed JSON"}}
	default:
		return []response.ValidationError{{Field: "body", Message: err.Error()}}
	}
}
