package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ContactBook/internal/cache"
	"ContactBook/internal/model"
	"ContactBook/internal/model/dto"
	"ContactBook/pkg/contactapi"
	pkgerrors "ContactBook/pkg/errors"
)

func validForm() dto.ContactForm {
	return dto.ContactForm{
		FirstName: "Ana",
		LastName:  "Diaz",
		Phone:     "+54 11 5555 1234",
		Email:     "ana@example.com",
	}
}

func TestContactPanicsBeforeInit(t *testing.T) {
	contactMu.Lock()
	saved := contactService
	contactService = nil
	contactMu.Unlock()
	defer func() {
		contactMu.Lock()
		contactService = saved
		contactMu.Unlock()
	}()

	assert.Panics(t, func() { Contact() })

	s := InitContact(contactapi.NewMockClient(), nil, 0)
	assert.Same(t, s, Contact())
}

func TestSaveCreatesWithoutID(t *testing.T) {
	api := contactapi.NewMockClient()
	s := NewContactService(api, cache.NewLocalLocker(), time.Second)

	res, err := s.Save(context.Background(), "sid", validForm())
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEmpty(t, res.Contact.ID)

	assert.Len(t, api.CallsFor("Create"), 1)
	assert.Empty(t, api.CallsFor("Update"))
}

func TestSaveUpdatesWithID(t *testing.T) {
	api := contactapi.NewMockClient(model.Contact{ID: "c1", Email: "old@example.com"})
	s := NewContactService(api, cache.NewLocalLocker(), time.Second)

	form := validForm()
	form.ID = " c1 "
	res, err := s.Save(context.Background(), "sid", form)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "c1", res.Contact.ID)
	assert.Equal(t, "ana@example.com", res.Contact.Email)

	calls := api.CallsFor("Update")
	require.Len(t, calls, 1)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Empty(t, api.CallsFor("Create"))
}

func TestSaveValidationSkipsBackend(t *testing.T) {
	api := contactapi.NewMockClient()
	s := NewContactService(api, nil, 0)

	form := validForm()
	form.Phone = "12345"
	form.Email = ""

	_, err := s.Save(context.Background(), "sid", form)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Phone number must be in International format", verr.Fields["phone"])
	assert.Equal(t, "You need to provide an Email address", verr.Fields["email"])
	assert.Contains(t, verr.Error(), "email")

	assert.Empty(t, api.Calls)
}

func TestSaveBackendErrorIsWrapped(t *testing.T) {
	api := contactapi.NewMockClient()
	api.FailNext = &contactapi.APIError{Name: "Conflict", Message: "email already exists", Code: 409}
	s := NewContactService(api, cache.NewLocalLocker(), time.Second)

	_, err := s.Save(context.Background(), "sid", validForm())
	apiErr, ok := contactapi.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Conflict", apiErr.Name)

	// 失败后锁已释放
	_, err = s.Save(context.Background(), "sid", validForm())
	assert.NoError(t, err)
}

func TestSaveRejectsConcurrentSubmission(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := contactapi.NewMockClient()
	entered := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	api.Hook = func(ctx context.Context, call contactapi.MockCall) {
		if call.Method != "Create" || !first.CompareAndSwap(false, true) {
			return
		}
		close(entered)
		<-release
	}
	s := NewContactService(api, cache.NewLocalLocker(), time.Minute)

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background(), "sid", validForm())
		done <- err
	}()

	<-entered
	_, err := s.Save(context.Background(), "sid", validForm())
	assert.ErrorIs(t, err, pkgerrors.SubmissionInProgress)

	// 不同会话互不影响
	_, err = s.Save(context.Background(), "other-sid", validForm())
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	_, err = s.Save(context.Background(), "sid", validForm())
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	api := contactapi.NewMockClient(model.Contact{ID: "c1", Email: "ana@example.com"})
	s := NewContactService(api, cache.NewLocalLocker(), time.Second)

	deleted, err := s.Delete(context.Background(), "sid", "c1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", deleted.Email)
	assert.Empty(t, api.Contacts())

	_, err = s.Delete(context.Background(), "sid", "c1")
	assert.True(t, contactapi.IsNotFound(err))

	_, err = s.Delete(context.Background(), "sid", "")
	assert.ErrorIs(t, err, pkgerrors.InvalidPath)
}

func TestListAndGet(t *testing.T) {
	api := contactapi.NewMockClient(model.Contact{Email: "a@example.com"}, model.Contact{Email: "b@example.com"})
	s := NewContactService(api, nil, 0)

	contacts, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, contacts, 2)

	got, err := s.Get(context.Background(), "c2")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", got.Email)

	_, err = s.Get(context.Background(), "")
	assert.ErrorIs(t, err, pkgerrors.InvalidPath)
}
