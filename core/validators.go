package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	timeHHMMTag   = "hhmm"
	timeHHMMText  = "must be a time of day in HH:MM format"
	timeHHMMRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

	digitsDashTag   = "digitsdash"
	digitsDashText  = "only digits and dashes are allowed"
	digitsDashRegex = regexp.MustCompile(`^[\d-]+$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewValidator instantiates a ready-to-use validator and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	InitValidators(validate, translator)
	return validate, translator
}

// InitValidators registers our custom validations and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(timeHHMMTag, timeHHMMValidation)
	RegisterCustomTranslation(validate, translator, timeHHMMTag, timeHHMMText)

	_ = validate.RegisterValidation(digitsDashTag, digitsDashValidation)
	RegisterCustomTranslation(validate, translator, digitsDashTag, digitsDashText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// timeHHMMValidation only allows 24h times of day such as "08:30" or "21:00".
func timeHHMMValidation(fl validator.FieldLevel) bool {
	return timeHHMMRegex.MatchString(fl.Field().String())
}

// digitsDashValidation only allows digits and dashes (tax IDs, national IDs).
func digitsDashValidation(fl validator.FieldLevel) bool {
	return digitsDashRegex.MatchString(fl.Field().String())
}
