package card

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports a card that breaks the producer contract.
type ValidationError struct {
	Name   string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid card: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid card %q: %s %s", e.Name, e.Field, e.Reason)
}

// cardView is the tagged shape validated by go-playground/validator.
type cardView struct {
	Name  string  `validate:"required,max=256"`
	Type  string  `validate:"required,oneof=CONDITIONAL CONDITIONAL_HEADER CONDITIONAL_FOOTER LEGACY_SUGGESTION SLICE"`
	Score float64 `validate:"finite"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Validate checks a single card.
func Validate(c Card) error {
	err := validate.Struct(cardView{Name: c.name, Type: string(c.cardType), Score: c.rankingScore})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return ValidationError{
		Name:   c.name,
		Field:  strings.ToLower(fe.Field()),
		Reason: describeTag(fe.Tag()),
	}
}

// ValidateBatch checks every card of a batch and that all of them are of type t.
func ValidateBatch(t Type, cards []Card) error {
	for _, c := range cards {
		if err := Validate(c); err != nil {
			return err
		}
		if c.cardType != t {
			return ValidationError{Name: c.name, Field: "type", Reason: fmt.Sprintf("is %s in a %s batch", c.cardType, t)}
		}
	}
	return nil
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "oneof":
		return "is not a producible card type"
	case "finite":
		return "must be a finite number"
	case "max":
		return "is too long"
	default:
		return "failed " + tag
	}
}
