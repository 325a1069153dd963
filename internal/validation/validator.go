package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/provisioning-service/internal/api/dto"
)

// MsgEmployeePasswordDigits is reported when the employee password is not all digits.
const MsgEmployeePasswordDigits = "Employee password must contain only numbers"

var digitsOnly = regexp.MustCompile(`^\d+$`)

// RoleResolver looks up a custom role identifier by display name.
type RoleResolver interface {
	Resolve(name string) (string, bool)
}

// Errors is the full list of problems found in one request.
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, "; ")
}

// Validator gates provisioning requests before any browser work starts.
type Validator struct {
	validate *validator.Validate
	roles    RoleResolver
}

// New configures the validator. Field errors use JSON tag names.
func New(roles RoleResolver) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// "" never matches, so an absent password fails here too.
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsOnly.MatchString(fl.Field().String())
	})
	return &Validator{validate: v, roles: roles}
}

// Validate returns every problem with the request, or nil when it may proceed.
func (v *Validator) Validate(req dto.ProvisionRequest) error {
	var errs Errors
	if msg := v.missingFields(req.User, "User"); msg != "" {
		errs = append(errs, msg)
	}
	if msg := v.missingFields(req.Employee, "Employee"); msg != "" {
		errs = append(errs, msg)
	}
	if err := v.validate.Var(req.Employee.PasswordText(), "digits"); err != nil {
		errs = append(errs, MsgEmployeePasswordDigits)
	}
	if role := string(req.User.CustomRole); role != "" && v.roles != nil {
		if _, ok := v.roles.Resolve(role); !ok {
			errs = append(errs, fmt.Sprintf("User custom_role %q is not a known role", role))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (v *Validator) missingFields(record any, name string) string {
	err := v.validate.Struct(record)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Sprintf("%s is invalid: %v", name, err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("%s is missing the following fields: %s", name, strings.Join(missing, ", "))
}
