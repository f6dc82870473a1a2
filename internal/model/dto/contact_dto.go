package dto

import (
	stderrors "errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"ContactBook/internal/model"
	"ContactBook/utils"
)

// ========== Contact 表单 ==========
// 字段名与页面上的 input name 一致

// ContactForm 新建 / 编辑表单
type ContactForm struct {
	ID        string `form:"_id"`
	FirstName string `form:"name.first" validate:"required,min=2"`
	LastName  string `form:"name.last"`
	Phone     string `form:"phone" validate:"required,intl_phone"`
	Email     string `form:"email" validate:"required,loose_email"`
	BirthDate string `form:"fnacimiento" validate:"omitempty,min=2"`
	Age       string `form:"edad" validate:"omitempty,min=2"`
}

// FieldErrors 字段名 -> 错误提示，每个字段最多一条
type FieldErrors map[string]string

// fieldMessages 字段 + 规则 -> 页面提示
var fieldMessages = map[string]map[string]string{
	"name.first": {
		"required": "You need to provide First Name",
		"min":      "Must be 2 or more characters",
	},
	"phone": {
		"required":   "You need to provide a Phone number",
		"intl_phone": "Phone number must be in International format",
	},
	"email": {
		"required":    "You need to provide an Email address",
		"loose_email": "Invalid email address",
	},
	"fnacimiento": {
		"min": "Must be 2 or more characters",
	},
	"edad": {
		"min": "Must be 2 or more characters",
	},
}

// Normalize 去除首尾空白
func (f *ContactForm) Normalize() {
	f.ID = strings.TrimSpace(f.ID)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = strings.TrimSpace(f.Email)
	f.BirthDate = strings.TrimSpace(f.BirthDate)
	f.Age = strings.TrimSpace(f.Age)
}

// Validate 校验表单，返回空 map 表示通过。required 优先于其它规则。
func (f *ContactForm) Validate() FieldErrors {
	f.Normalize()

	errs := FieldErrors{}
	err := utils.Validator().Struct(f)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		errs["_form"] = err.Error()
		return errs
	}

	for _, fe := range verrs {
		field := fe.Field()
		if _, exists := errs[field]; exists {
			continue
		}
		msg, ok := fieldMessages[field][fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		errs[field] = msg
	}

	return errs
}

// ToContact 转为后端记录；新建时空的可选字段省略，更新时见 Contact.Patch
func (f ContactForm) ToContact() model.Contact {
	return model.Contact{
		ID: f.ID,
		Name: model.ContactName{
			First: f.FirstName,
			Last:  f.LastName,
		},
		Phone:     f.Phone,
		Email:     f.Email,
		BirthDate: model.FlexString(f.BirthDate),
		Age:       model.FlexString(f.Age),
	}
}

// FromContact 用已有记录填充编辑表单
func FromContact(c model.Contact) ContactForm {
	return ContactForm{
		ID:        c.ID,
		FirstName: c.Name.First,
		LastName:  c.Name.Last,
		Phone:     c.Phone,
		Email:     c.Email,
		BirthDate: c.BirthDate.String(),
		Age:       c.Age.String(),
	}
}
