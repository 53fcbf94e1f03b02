package handlers

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/models"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by the request
// types in this package. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		for tag, fn := range map[string]validator.Func{
			"role":     validateRole,
			"clock":    layoutValidator(models.ClockLayout),
			"ymd":      layoutValidator(models.DateLayout),
			"objectid": validateObjectID,
		} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic(err)
			}
		}
	})
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func validateObjectID(fl validator.FieldLevel) bool {
	return primitive.IsValidObjectID(fl.Field().String())
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, strings.TrimSpace(fl.Field().String()))
		return err == nil
	}
}
