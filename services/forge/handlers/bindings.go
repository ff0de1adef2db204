// Copyright (C) 2026 Praxis Labs (oss@praxislabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/praxislabs/praxis/pkg/validation"
)

// The domaintag binding rejects tags that would be unsafe as storage
// key segments before a handler ever sees them.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("domaintag", func(fl validator.FieldLevel) bool {
			_, err := validation.SanitizeDomainTag(fl.Field().String())
			return err == nil
		})
	}
}
