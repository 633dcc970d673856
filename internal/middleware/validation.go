package middleware

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var taxIDPattern = regexp.MustCompile(`^[0-9]{7,9}-[0-9Kk]$`)

// taxID validates the national tax identifier format used by anchor
// companies and suppliers.
func taxID(fl validator.FieldLevel) bool {
	return taxIDPattern.MatchString(fl.Field().String())
}

// RegisterValidators installs custom binding validators and makes
// validation errors report JSON field names instead of Go field names.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	if err := v.RegisterValidation("taxid", taxID); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}
