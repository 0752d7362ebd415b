package validation

import (
	"fmt"
	"net"
	"net/mail"
	"slices"
	"strings"

	errors "github.com/frahmantamala/storeadmin/internal"
	"github.com/frahmantamala/storeadmin/internal/rbac"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{FieldName: name, Value: value}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) fail(message string, code errors.ErrorCode) *errors.AppError {
	return errors.NewValidationFieldError(fv.FieldName, message, code)
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case int64:
			if v == 0 {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || *v == "" {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len(v) < min {
			return fv.fail(fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len(v) > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" {
			if _, err := mail.ParseAddress(v); err != nil {
				return fv.fail(fmt.Sprintf("%s must be a valid email address", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

// Role accepts only the declared admin roles.
func (fv *FieldValidator) Role() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if _, valid := rbac.ParseRole(v); !valid {
				return fv.fail(fmt.Sprintf("%s must be one of SUPER_ADMIN, ADMINISTRATOR, MANAGER, CRM_MANAGER", fv.FieldName), errors.ErrCodeInvalidRole)
			}
		}
		return nil
	})
	return fv
}

// Permissions rejects strings the role table does not know.
func (fv *FieldValidator) Permissions(table *rbac.RoleTable) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		perms, ok := value.([]string)
		if !ok {
			return nil
		}
		var unknown []string
		for _, p := range perms {
			if !table.IsKnown(p) {
				unknown = append(unknown, p)
			}
		}
		if len(unknown) > 0 {
			slices.Sort(unknown)
			return fv.fail(fmt.Sprintf("%s contains unknown permissions: %s", fv.FieldName, strings.Join(unknown, ", ")), errors.ErrCodeInvalidPermission)
		}
		return nil
	})
	return fv
}

// TimeOfDay accepts "" or HH:MM.
func (fv *FieldValidator) TimeOfDay() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" {
			if err := rbac.ValidateTimeOfDay(v); err != nil {
				return fv.fail(fmt.Sprintf("%s must be in HH:MM format", fv.FieldName), errors.ErrCodeInvalidTimeWindow)
			}
		}
		return nil
	})
	return fv
}

// IPs requires every entry to be a literal IPv4 or IPv6 address.
func (fv *FieldValidator) IPs() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		ips, ok := value.([]string)
		if !ok {
			return nil
		}
		for _, ip := range ips {
			if net.ParseIP(strings.TrimSpace(ip)) == nil {
				return fv.fail(fmt.Sprintf("%s contains an invalid ip address: %q", fv.FieldName, ip), errors.ErrCodeInvalidIP)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every field validator and folds the failures into a single
// validation AppError.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
				continue
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Message: appErr.Message,
				Code:    string(appErr.Code),
			})
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}
