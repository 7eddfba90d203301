package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the struct-tag rules and folds every failure into one
// ErrValidation-wrapped error naming field and tag.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	sort.Strings(msgs)
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// ValidateUser checks a user against the roster rules. divisions is the
// current division catalog.
func ValidateUser(u User, divisions []DivisionConfig) error {
	if err := ValidateStruct(u); err != nil {
		return err
	}
	if u.Role == RoleReviewer {
		if u.Division == "" {
			return Invalid("reviewer %s requires a division", u.ID)
		}
		if !divisionExists(u.Division, divisions) {
			return Invalid("unknown division %s", u.Division)
		}
		return nil
	}
	if u.Division != "" {
		return Invalid("division is only assigned to reviewers, %s is %s", u.ID, u.Role)
	}
	return nil
}

// ValidateDivision checks a division's shape and that its code is unique
// among others. The entry with the same id is ignored so updates validate.
func ValidateDivision(d DivisionConfig, others []DivisionConfig) error {
	if err := ValidateStruct(d); err != nil {
		return err
	}
	if d.Code == TargetAll {
		return Invalid("division code %s is reserved", d.Code)
	}
	for _, o := range others {
		if o.ID != d.ID && o.Code == d.Code {
			return Invalid("division code %s already in use", d.Code)
		}
	}
	return nil
}

// ValidateProgress enforces the [0,100] bound.
func ValidateProgress(percent int) error {
	if percent < 0 || percent > 100 {
		return Invalid("progress %d outside 0..100", percent)
	}
	return nil
}

func divisionExists(code DivisionCode, divisions []DivisionConfig) bool {
	for _, d := range divisions {
		if d.Code == code {
			return true
		}
	}
	return false
}
