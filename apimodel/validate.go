package apimodel

import (
	"github.com/go-playground/validator/v10"
)

// Validate is the validator shared by all packages, so custom validations
// registered once apply everywhere.
var Validate = validator.New(validator.WithRequiredStructEnabled())
