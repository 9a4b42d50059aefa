package model

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs custom binding validations on gin's
// validator engine. Called once from the composition root.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("dateofbirth", validDateOfBirth)
	}
}

// validDateOfBirth accepts ISO dates that are not in the future.
func validDateOfBirth(fl validator.FieldLevel) bool {
	dob, err := time.Parse("2006-01-02", fl.Field().String())
	if err != nil {
		return false
	}
	return !dob.After(time.Now())
}
