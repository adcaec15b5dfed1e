package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/service"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	registerOnce    sync.Once
)

// RegisterValidators installs the custom binding rules and makes
// validation errors report JSON field names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
}

func fieldMessage(fe validator.FieldError) string {
	numeric := fe.Kind() >= reflect.Int && fe.Kind() <= reflect.Float64
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "username":
		return "enter a valid username, only letters, digits and @/./+/-/_ are allowed"
	case "min":
		if numeric {
			return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
		}
		return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
	case "max":
		if numeric {
			return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
		}
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	default:
		return "invalid value"
	}
}

// fieldPath drops the struct name from a validator namespace, turning
// "CreateRecipeRequest.ingredients[0].id" into "ingredients[0].id"
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

// bindJSON decodes the request body into dst and writes a 400 response on
// failure. It reports whether the handler may continue.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body := gin.H{}
		for _, fe := range verrs {
			path := fieldPath(fe)
			msgs, _ := body[path].([]string)
			body[path] = append(msgs, fieldMessage(fe))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
		return false
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": []string{"malformed request body"}})
	return false
}

// respondError maps a service error to its HTTP status and body
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	svcErr, ok := service.AsError(err)
	if !ok {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}

	switch svcErr.Kind {
	case service.KindValidation, service.KindConflict:
		if svcErr.Field != "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{svcErr.Field: []string{svcErr.Message}})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": []string{svcErr.Message}})
	case service.KindNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": svcErr.Message})
	case service.KindForbidden:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": svcErr.Message})
	case service.KindUnauthorized:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": svcErr.Message})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

func notFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "not found"})
}
