package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"ContactBook/internal/middleware"
	"ContactBook/internal/model/dto"
	"ContactBook/internal/state"
)

const (
	listTemplate = "list.html"
	formTemplate = "form.html"
)

func pageData(c *app.RequestContext, title string, store *state.Store) utils.H {
	return utils.H{
		"Title":     title,
		"Path":      string(c.Path()),
		"State":     store.State(),
		"CSRF":      middleware.CSRFToken(c),
		"RequestID": middleware.GetRequestID(c),
	}
}

func renderList(_ context.Context, c *app.RequestContext, status int, store *state.Store) {
	c.HTML(status, listTemplate, pageData(c, "Lista de Estudiantes", store))
}

// renderForm action 为表单提交地址，errs 为空表示没有字段错误
func renderForm(_ context.Context, c *app.RequestContext, status int, store *state.Store, form dto.ContactForm, errs dto.FieldErrors, action string) {
	title := "Agregar nuevo Estudiante"
	if form.ID != "" {
		title = "Editar Estudiante"
	}
	if errs == nil {
		errs = dto.FieldErrors{}
	}

	data := pageData(c, title, store)
	data["Form"] = form
	data["Errors"] = errs
	data["Action"] = action
	c.HTML(status, formTemplate, data)
}
