package validator

import (
	"barhop/pkg/logger"
	"barhop/pkg/model"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Fields flattens the errors into a field -> message map for error details.
func (v ValidationErrors) Fields() map[string]any {
	fields := make(map[string]any, len(v))
	for _, e := range v {
		fields[e.Field] = e.Message
	}
	return fields
}

type BarValidator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func NewBarValidator(log *logger.Logger) *BarValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	return &BarValidator{
		validate: v,
		log:      log,
	}
}

func (v *BarValidator) Validate(bar *model.Bar) error {
	if err := v.validate.Struct(bar); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(bar)
}

type visit struct {
	ExternalID string `json:"externalId" validate:"required,max=256"`
	UserID     string `json:"userId" validate:"required,max=256"`
}

// ValidateVisit applies the bar's identifier rules to a check-in toggle.
func (v *BarValidator) ValidateVisit(externalID, userID string) error {
	err := v.validate.Struct(visit{ExternalID: externalID, UserID: userID})
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return v.translateValidationErrors(validationErrs)
	}
	return err
}

func (v *BarValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(err.Namespace()),
			Message: describe(err),
		})
	}

	return validationErrors
}

func (v *BarValidator) validateBusinessRules(bar *model.Bar) error {
	var errs ValidationErrors

	seen := make(map[string]bool, len(bar.Visitors))
	for _, visitor := range bar.Visitors {
		if seen[visitor] {
			errs = append(errs, ValidationError{
				Field:   "visitors",
				Message: fmt.Sprintf("duplicate visitor %q", visitor),
			})
			break
		}
		seen[visitor] = true
	}

	if bar.VisitorsCount != len(bar.Visitors) {
		errs = append(errs, ValidationError{
			Field:   "visitorsCount",
			Message: fmt.Sprintf("must equal the number of visitors (%d), got %d", len(bar.Visitors), bar.VisitorsCount),
		})
	}

	if len(errs) > 0 {
		if v.log != nil {
			v.log.Debug("Bar failed business rules", "yelp_id", bar.YelpID, "errors", errs.Error())
		}
		return errs
	}
	return nil
}

func describe(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", err.Param())
	default:
		return fmt.Sprintf("failed %q validation", err.Tag())
	}
}

// fieldPath drops the struct name from a validator namespace: "Bar.visitors[0]" -> "visitors[0]".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
