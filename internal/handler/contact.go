package handler

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"ContactBook/internal/middleware"
	"ContactBook/internal/model/dto"
	"ContactBook/internal/service"
	"ContactBook/internal/state"
	"ContactBook/pkg/errors"
	"ContactBook/pkg/logger"
	"ContactBook/pkg/response"
)

// ListContacts 学生列表
// GET /
func ListContacts(ctx context.Context, c *app.RequestContext) {
	store, err := middleware.GetStore(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	contacts, err := service.Contact().List(ctx)
	if err != nil {
		logger.Logger.Warn("Failed to list contacts",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		if response.WantsJSON(c) {
			response.Error(ctx, c, err)
			return
		}
		state.FlashErrorMessage(store, err)
		renderList(ctx, c, response.StatusFor(err), store)
		return
	}

	dispatch(store, state.Action{Type: state.FetchContacts, Payload: contacts})

	if response.WantsJSON(c) {
		response.Success(ctx, c, store.State().Contacts)
		return
	}
	renderList(ctx, c, consts.StatusOK, store)
}

// NewContactForm 新建表单
// GET /contacts/new
func NewContactForm(ctx context.Context, c *app.RequestContext) {
	store, err := middleware.GetStore(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	renderForm(ctx, c, consts.StatusOK, store, dto.ContactForm{}, nil, "/contacts/new")
}

// CreateContact 提交新建
// POST /contacts/new
func CreateContact(ctx context.Context, c *app.RequestContext) {
	submitContact(ctx, c, "")
}

// EditContactForm 编辑表单，读取失败时仍渲染表单并展示错误
// GET /contacts/edit/:id
func EditContactForm(ctx context.Context, c *app.RequestContext) {
	store, err := middleware.GetStore(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	id := c.Param("id")
	action := "/contacts/edit/" + id

	contact, err := service.Contact().Get(ctx, id)
	if err != nil {
		logger.Logger.Warn("Failed to load contact",
			zap.String("contact_id", id),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		state.FlashErrorMessage(store, err)
		renderForm(ctx, c, response.StatusFor(err), store, dto.ContactForm{ID: id}, nil, action)
		return
	}

	dispatch(store, state.Action{Type: state.FetchContact, Payload: contact})
	renderForm(ctx, c, consts.StatusOK, store, dto.FromContact(store.State().Contact), nil, action)
}

// UpdateContact 提交编辑，ID 以路径为准
// POST /contacts/edit/:id
func UpdateContact(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if id == "" {
		response.Error(ctx, c, errors.InvalidPath)
		return
	}
	submitContact(ctx, c, id)
}

// submitContact 新建与编辑共用的提交流程：有 ID 更新，否则新建
func submitContact(ctx context.Context, c *app.RequestContext, id string) {
	store, err := middleware.GetStore(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	var form dto.ContactForm
	if err := c.BindForm(&form); err != nil {
		logger.Logger.Info("Failed to bind contact form", zap.Error(err))
		response.Error(ctx, c, errors.InvalidRequest)
		return
	}
	form.ID = id
	form.Normalize()

	action := "/contacts/new"
	if id != "" {
		action = "/contacts/edit/" + id
	}

	dispatch(store, state.Action{Type: state.SetLoading, Payload: true})
	result, err := service.Contact().Save(ctx, middleware.SessionID(c), form)
	dispatch(store, state.Action{Type: state.SetLoading, Payload: false})

	if err != nil {
		var verr *service.ValidationError
		if stderrors.As(err, &verr) {
			renderForm(ctx, c, consts.StatusUnprocessableEntity, store, form, verr.Fields, action)
			return
		}

		logger.Logger.Warn("Failed to save contact",
			zap.String("contact_id", id),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		state.FlashErrorMessage(store, err)
		renderForm(ctx, c, response.StatusFor(err), store, form, nil, action)
		return
	}

	actionType := state.UpdateContact
	if result.Created {
		actionType = state.CreateContact
	}
	dispatch(store, state.Action{Type: actionType, Payload: result.Contact})

	redirectWithFlash(c, store.State().Message)
}

// DeleteContact 删除后回到列表，结果通过 flash 展示
// POST /contacts/delete/:id
func DeleteContact(ctx context.Context, c *app.RequestContext) {
	store, err := middleware.GetStore(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	id := c.Param("id")
	deleted, err := service.Contact().Delete(ctx, middleware.SessionID(c), id)
	if err != nil {
		logger.Logger.Warn("Failed to delete contact",
			zap.String("contact_id", id),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		state.FlashErrorMessage(store, err)
		redirectWithFlash(c, store.State().Message)
		return
	}

	dispatch(store, state.Action{Type: state.DeleteContact, Payload: deleted})
	redirectWithFlash(c, store.State().Message)
}

func redirectWithFlash(c *app.RequestContext, msg state.Message) {
	if !msg.Empty() {
		if err := middleware.PushFlash(c, msg); err != nil {
			logger.Logger.Error("Failed to persist flash message", zap.Error(err))
		}
	}
	c.Redirect(http.StatusFound, []byte("/"))
}

func dispatch(store *state.Store, action state.Action) {
	if err := store.Dispatch(action); err != nil {
		logger.Logger.Error("Failed to dispatch action",
			zap.String("action", string(action.Type)),
			zap.Error(err),
		)
	}
}
