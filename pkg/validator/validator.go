package validator

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// currencyCodes are the settlement currencies the payment provider account
// accepts. Binding rejects anything else before it reaches the provider.
var currencyCodes = map[string]struct{}{
	"usd": {},
	"cad": {},
	"eur": {},
	"gbp": {},
	"aud": {},
}

// Register installs custom binding validations on gin's validator engine.
// Call once at startup before the router handles traffic.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}

	return v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		_, ok := currencyCodes[fl.Field().String()]
		return ok
	})
}
