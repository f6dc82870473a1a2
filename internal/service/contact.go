package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"ContactBook/internal/cache"
	"ContactBook/internal/model"
	"ContactBook/internal/model/dto"
	"ContactBook/pkg/contactapi"
	pkgerrors "ContactBook/pkg/errors"
	"ContactBook/pkg/logger"
	"ContactBook/pkg/metrics"
)

var (
	contactService *ContactService
	contactMu      sync.RWMutex
)

// InitContact 设置全局联系人服务，启动时和测试中调用
func InitContact(api contactapi.Client, locker cache.Locker, lockTTL time.Duration) *ContactService {
	s := NewContactService(api, locker, lockTTL)

	contactMu.Lock()
	contactService = s
	contactMu.Unlock()

	return s
}

func Contact() *ContactService {
	contactMu.RLock()
	defer contactMu.RUnlock()

	if contactService == nil {
		panic(pkgerrors.ErrServiceNotInitialized)
	}
	return contactService
}

type ContactService struct {
	api     contactapi.Client
	locker  cache.Locker
	lockTTL time.Duration
}

func NewContactService(api contactapi.Client, locker cache.Locker, lockTTL time.Duration) *ContactService {
	if lockTTL <= 0 {
		lockTTL = 15 * time.Second
	}
	return &ContactService{api: api, locker: locker, lockTTL: lockTTL}
}

// ValidationError 表单未通过校验，未发出任何请求
type ValidationError struct {
	Fields dto.FieldErrors
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s: %v", pkgerrors.ContactInvalid.Message, fields)
}

// SaveResult Created 为 false 表示走了更新
type SaveResult struct {
	Contact model.Contact
	Created bool
}

func (s *ContactService) List(ctx context.Context) ([]model.Contact, error) {
	contacts, err := s.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Get(ctx context.Context, id string) (model.Contact, error) {
	if id == "" {
		return model.Contact{}, pkgerrors.InvalidPath
	}

	contact, err := s.api.Get(ctx, id)
	if err != nil {
		return model.Contact{}, fmt.Errorf("get contact %s: %w", id, err)
	}
	return contact, nil
}

// Save 校验后提交：有 ID 走 PATCH，否则 POST
func (s *ContactService) Save(ctx context.Context, sessionID string, form dto.ContactForm) (SaveResult, error) {
	form.Normalize()
	op := "create"
	if form.ID != "" {
		op = "update"
	}

	if fieldErrs := form.Validate(); len(fieldErrs) > 0 {
		for field := range fieldErrs {
			metrics.RecordValidationFailed(ctx, field)
		}
		metrics.RecordSubmit(ctx, op, "invalid")
		return SaveResult{}, &ValidationError{Fields: fieldErrs}
	}

	var result SaveResult
	err := s.withSubmitLock(ctx, sessionID, op, func(ctx context.Context) error {
		contact := form.ToContact()
		if op == "update" {
			updated, err := s.api.Update(ctx, form.ID, contact)
			if err != nil {
				return fmt.Errorf("update contact %s: %w", form.ID, err)
			}
			if updated.ID == "" {
				updated.ID = form.ID
			}
			result = SaveResult{Contact: updated}
			return nil
		}

		created, err := s.api.Create(ctx, contact)
		if err != nil {
			return fmt.Errorf("create contact: %w", err)
		}
		result = SaveResult{Contact: created, Created: true}
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}

	logger.Logger.Info("Contact saved",
		zap.String("operation", op),
		zap.String("contact_id", result.Contact.ID),
		zap.String("request_id", contactapi.RequestIDFrom(ctx)),
	)
	return result, nil
}

func (s *ContactService) Delete(ctx context.Context, sessionID, id string) (model.Contact, error) {
	if id == "" {
		return model.Contact{}, pkgerrors.InvalidPath
	}

	var deleted model.Contact
	err := s.withSubmitLock(ctx, sessionID, "delete", func(ctx context.Context) error {
		var err error
		deleted, err = s.api.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete contact %s: %w", id, err)
		}
		if deleted.ID == "" {
			deleted.ID = id
		}
		return nil
	})
	if err != nil {
		return model.Contact{}, err
	}

	logger.Logger.Info("Contact deleted",
		zap.String("contact_id", id),
		zap.String("request_id", contactapi.RequestIDFrom(ctx)),
	)
	return deleted, nil
}

// withSubmitLock 同一会话的提交串行化，拿不到锁直接返回 SubmissionInProgress
func (s *ContactService) withSubmitLock(ctx context.Context, sessionID, op string, fn func(context.Context) error) error {
	if s.locker == nil || sessionID == "" {
		err := fn(ctx)
		recordOutcome(ctx, op, err)
		return err
	}

	token, ok, err := s.locker.TryLock(ctx, sessionID, s.lockTTL)
	if err != nil {
		// 锁服务故障时不阻塞提交
		logger.Logger.Warn("Failed to acquire submit lock, continuing without it",
			zap.String("operation", op),
			zap.Error(err),
		)
		err = fn(ctx)
		recordOutcome(ctx, op, err)
		return err
	}
	if !ok {
		metrics.RecordLockContention(ctx)
		metrics.RecordSubmit(ctx, op, "locked")
		logger.Logger.Info("Submission rejected, another one in progress",
			zap.String("operation", op),
			zap.String("request_id", contactapi.RequestIDFrom(ctx)),
		)
		return pkgerrors.SubmissionInProgress
	}

	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.locker.Unlock(unlockCtx, sessionID, token); err != nil {
			logger.Logger.Warn("Failed to release submit lock", zap.String("operation", op), zap.Error(err))
		}
	}()

	err = fn(ctx)
	recordOutcome(ctx, op, err)
	return err
}

func recordOutcome(ctx context.Context, op string, err error) {
	if err != nil {
		metrics.RecordSubmit(ctx, op, "failed")
		return
	}
	metrics.RecordSubmit(ctx, op, "success")
}
