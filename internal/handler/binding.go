package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mediqo/booking-api/internal/schedule"
)

// Custom binding rules used by the request structs. Registered once for
// the process; gin shares a single validator engine.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("slotlabel", func(fl validator.FieldLevel) bool {
		return schedule.ValidSlotLabel(fl.Field().String())
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseDate(fl.Field().String())
		return err == nil
	})
}
