package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the domain tags used in request bindings to gin's
// validator and reports fields by their JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "uri", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v.RegisterValidation("help_category", func(fl validator.FieldLevel) bool {
		return domain.HelpCategory(fl.Field().String()).Valid()
	})
}

// respondBindError renders a binding failure as a 400.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		respondBadRequest(c, "invalid request body")
		return
	}
	for _, fe := range verrs {
		if fe.Tag() == "help_category" {
			respondError(c, domain.ErrInvalidCategory)
			return
		}
	}
	respondBadRequest(c, fmt.Sprintf("invalid value for %s", verrs[0].Field()))
}
