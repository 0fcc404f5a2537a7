package flows

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const gmailSuffix = "@gmail.com"

// formValidator checks form structs before anything is sent. Messages are
// looked up by "<Field>.<tag>" with "<Field>" as a fallback.
type formValidator struct {
	v        *validator.Validate
	messages map[string]string
}

func newFormValidator(messages map[string]string) *formValidator {
	v := validator.New()
	_ = v.RegisterValidation("gmail", func(fl validator.FieldLevel) bool {
		return strings.HasSuffix(fl.Field().String(), gmailSuffix)
	})
	return &formValidator{v: v, messages: messages}
}

// Check returns a *ValidationError naming every failing field, or nil.
func (f *formValidator) Check(form any) error {
	err := f.v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		msg, ok := f.messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg, ok = f.messages[fe.Field()]
		}
		if !ok {
			msg = fe.Field() + " is invalid."
		}
		out.Fields[fe.Field()] = msg
	}
	return out
}
