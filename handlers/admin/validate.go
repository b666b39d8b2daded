// handlers/admin/validate.go - Shared request validator
package admin

import "github.com/go-playground/validator/v10"

var validate = validator.New()
