package api

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rongwang/budget-server/internal/models"
)

var registerOnce sync.Once

// registerValidators adds the custom binding rules to gin's validator and
// reports fields by their json or form name
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(requestFieldName)

		err := v.RegisterValidation("monthkey", func(fl validator.FieldLevel) bool {
			return models.MonthKey(fl.Field().String()).IsValid()
		})
		if err != nil {
			panic("api: registering monthkey validator: " + err.Error())
		}
	})
}

func requestFieldName(field reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(field.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return ""
}
