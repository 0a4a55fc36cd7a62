package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	clockTag = "clock"
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(clockTag, clockValidation)
	_ = validate.RegisterTranslation(clockTag, translator,
		func(t ut.Translator) error {
			return t.Add(clockTag, "{0} must be a time in HH:MM format", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(clockTag, fe.Field())
			return msg
		},
	)
}

func clockValidation(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, _, err := model.ParseClock(s)
	return err == nil
}

// validateStruct runs the struct validator and folds its findings into model.ErrInvalidInput.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fe.Translate(translator))
		}
		return fmt.Errorf("%w: %s", model.ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidInput, fmt.Sprintf(format, args...))
}
