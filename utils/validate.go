package utils

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// 宽松的国际格式：+ 开头，7~15 位数字，数字之间允许单个空格
	phonePattern = regexp.MustCompile(`^\+(?:[0-9] ?){6,14}[0-9]$`)
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Validator 返回共享的校验器，字段名取 form 标签，便于和表单字段对应
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("intl_phone", func(fl validator.FieldLevel) bool {
			return ValidatePhone(fl.Field().String())
		})
		_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
			return ValidateEmail(fl.Field().String())
		})

		validate = v
	})

	return validate
}
