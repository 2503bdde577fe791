package core

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/locales/ar"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var (
	// custom validation tags & texts (user-facing messages are in Arabic)
	notBlankTag  = "notblank"
	notBlankText = "هذا الحقل لا يمكن أن يكون فارغاً"
	passwordTag  = "password"
	passwordText = "كلمة المرور قصيرة جداً"

	// PasswordMinLength is the shortest password accepted at registration.
	PasswordMinLength = 8

	requiredTag  = "required"
	requiredText = "جميع الحقول المطلوبة يجب ملؤها"
	emailTag     = "email"
	emailText    = "البريد الإلكتروني غير صالح"
	minTag       = "min"
	minText      = "القيمة المدخلة قصيرة جداً"
	maxTag       = "max"
	maxText      = "القيمة المدخلة طويلة جداً"
)

// NewTranslator returns the Arabic translator used for every validation message.
func NewTranslator() ut.Translator {
	_ar := ar.New()
	uni := ut.New(_ar, _ar)
	translator, _ := uni.GetTranslator("ar")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)
	_ = validate.RegisterValidation(passwordTag, passwordValidation)
	RegisterCustomTranslation(validate, translator, passwordTag, passwordText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, emailTag, emailText, true)
	RegisterCustomTranslation(validate, translator, minTag, minText, true)
	RegisterCustomTranslation(validate, translator, maxTag, maxText, true)
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

// TranslateFirst translates the first failing field, following the given field priority.
// Fields not listed come after, in validation order.
func TranslateFirst(errs validator.ValidationErrors, translator ut.Translator, priority ...string) FieldError {
	if len(errs) == 0 {
		return FieldError{}
	}
	for _, fld := range priority {
		for _, fe := range errs {
			if fe.Field() == fld {
				return FieldError{Field: fe.Field(), Error: fe.Translate(translator)}
			}
		}
	}
	return FieldError{Field: errs[0].Field(), Error: errs[0].Translate(translator)}
}

// Custom Global Validators

// notBlankValidation rejects strings made only of whitespace.
func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// passwordValidation checks the minimum length, in runes.
func passwordValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return utf8.RuneCountInString(str) >= PasswordMinLength
	}
	return false
}
