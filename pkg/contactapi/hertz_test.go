package contactapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContactBook/internal/model"
	"ContactBook/pkg/breaker"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body []byte)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	f.mu.Unlock()
	f.handler(w, r, body)
}

func (f *fakeBackend) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte), cb *breaker.CircuitBreaker) (*HertzClient, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{handler: handler}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cli, err := NewHertzClient(Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Breaker: cb})
	require.NoError(t, err)
	return cli, backend
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, _ := sonic.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func TestNewHertzClientRequiresBaseURL(t *testing.T) {
	_, err := NewHertzClient(Options{})
	assert.Error(t, err)
}

func TestListPaginated(t *testing.T) {
	cli, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusOK, model.ContactPage{
			Total: 2, Limit: 10,
			Data: []model.Contact{
				{ID: "a", Name: model.ContactName{First: "Ana"}, Email: "ana@example.com"},
				{ID: "b", Name: model.ContactName{First: "Beto"}, Email: "beto@example.com"},
			},
		})
	}, nil)

	contacts, err := cli.List(WithRequestID(context.Background(), "req-1"))
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Ana", contacts[0].Name.First)

	req := backend.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/contacts", req.Path)
	assert.Equal(t, "req-1", req.Header.Get(HeaderRequestID))
}

func TestListBareArray(t *testing.T) {
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusOK, []model.Contact{{ID: "a", Phone: "+54 11 5555 1234"}})
	}, nil)

	contacts, err := cli.List(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "+54 11 5555 1234", contacts[0].Phone)
}

func TestListEmptyPage(t *testing.T) {
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"total": 0, "limit": 10, "skip": 0})
	}, nil)

	contacts, err := cli.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}

func TestCreateSendsBodyWithoutID(t *testing.T) {
	cli, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		var in model.Contact
		_ = sonic.Unmarshal(body, &in)
		in.ID = "new-id"
		writeJSON(w, http.StatusCreated, in)
	}, nil)

	created, err := cli.Create(context.Background(), model.Contact{
		ID:    "ignored",
		Name:  model.ContactName{First: "Ana", Last: "Diaz"},
		Phone: "+54 11 5555 1234",
		Email: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
	assert.Equal(t, "Diaz", created.Name.Last)

	req := backend.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/contacts", req.Path)
	assert.NotEmpty(t, req.Header.Get(HeaderIdempotencyKey))
	assert.Contains(t, req.Header.Get("Content-Type"), "application/json")
	assert.NotContains(t, string(req.Body), "_id")
}

func TestUpdateUsesPatch(t *testing.T) {
	cli, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		var in model.Contact
		_ = sonic.Unmarshal(body, &in)
		in.ID = "abc"
		writeJSON(w, http.StatusOK, in)
	}, nil)

	updated, err := cli.Update(context.Background(), "abc", model.Contact{ID: "abc", Email: "x@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "abc", updated.ID)

	req := backend.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/contacts/abc", req.Path)
	assert.Empty(t, req.Header.Get(HeaderIdempotencyKey))
	assert.NotContains(t, string(req.Body), "_id")
}

func TestUpdateSendsClearedOptionalFields(t *testing.T) {
	cli, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, http.StatusOK, model.Contact{ID: "c1", Name: model.ContactName{First: "Ana"}})
	}, nil)

	form := model.Contact{
		ID:    "c1",
		Name:  model.ContactName{First: "Ana"},
		Phone: "+34 600 123 456",
		Email: "a@example.com",
	}
	_, err := cli.Update(context.Background(), "c1", form)
	require.NoError(t, err)

	var sent map[string]interface{}
	require.NoError(t, sonic.Unmarshal(backend.last(t).Body, &sent))
	assert.Equal(t, "", sent["fnacimiento"])
	assert.Equal(t, "", sent["edad"])
	assert.Equal(t, map[string]interface{}{"first": "Ana", "last": ""}, sent["name"])
}

func TestListNumericAge(t *testing.T) {
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total":2,"limit":10,"skip":0,"data":[` +
			`{"_id":"a","name":{"first":"Ana"},"phone":"+34 600 123 456","email":"a@example.com","edad":21},` +
			`{"_id":"b","name":{"first":"Beto"},"phone":"+1 555 0100 200","email":"b@example.com","edad":"30","fnacimiento":null}]}`))
	}, nil)

	contacts, err := cli.List(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, model.FlexString("21"), contacts[0].Age)
	assert.Equal(t, model.FlexString("30"), contacts[1].Age)
	assert.Empty(t, contacts[1].BirthDate)
}

func TestGetAndDelete(t *testing.T) {
	cli, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusOK, model.Contact{ID: "abc", Email: "a@example.com"})
	}, nil)

	got, err := cli.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	deleted, err := cli.Delete(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", deleted.ID)
	assert.Equal(t, http.MethodDelete, backend.last(t).Method)
}

func TestBackendErrorBody(t *testing.T) {
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"name":      "BadRequest",
			"message":   "email: Path `email` is required.",
			"code":      400,
			"className": "bad-request",
			"errors":    map[string]interface{}{"email": "required"},
		})
	}, nil)

	_, err := cli.Create(context.Background(), model.Contact{})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "BadRequest", apiErr.Name)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "bad-request", apiErr.ClassName)
	assert.False(t, apiErr.ServerSide())
	assert.Contains(t, apiErr.Errors, "email")
}

func TestBackendNotFound(t *testing.T) {
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"name": "NotFound", "message": "No record found for id 'zzz'", "code": 404,
		})
	}, nil)

	_, err := cli.Get(context.Background(), "zzz")
	assert.True(t, IsNotFound(err))
}

func TestDecodeAPIErrorFallback(t *testing.T) {
	apiErr := decodeAPIError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	assert.Equal(t, "Error", apiErr.Name)
	assert.Equal(t, 502, apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)
	assert.True(t, apiErr.ServerSide())

	apiErr = decodeAPIError(http.StatusConflict, []byte("duplicate email"))
	assert.Equal(t, "duplicate email", apiErr.Message)

	apiErr = decodeAPIError(http.StatusBadRequest, []byte(`{"message":"bad"}`))
	assert.Equal(t, "Error", apiErr.Name)
	assert.Equal(t, 400, apiErr.Code)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	cli, err := NewHertzClient(Options{BaseURL: url, Timeout: 500 * time.Millisecond})
	require.NoError(t, err)

	_, err = cli.List(context.Background())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Network Error", apiErr.Message)
	assert.True(t, apiErr.ServerSide())
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	cb := breaker.New("test_backend", 2, time.Minute)
	cli, backend := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"name": "GeneralError", "message": "boom", "code": 500,
		})
	}, cb)

	for i := 0; i < 2; i++ {
		_, err := cli.List(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, breaker.StateOpen, cb.State())

	_, err := cli.List(context.Background())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Unavailable", apiErr.Name)
	assert.ErrorIs(t, err, breaker.ErrOpen)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Len(t, backend.requests, 2, "open breaker must not reach the backend")
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	cb := breaker.New("test_backend", 1, time.Minute)
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"name": "BadRequest", "message": "nope", "code": 400})
	}, cb)

	for i := 0; i < 3; i++ {
		_, err := cli.Create(context.Background(), model.Contact{})
		require.Error(t, err)
	}
	assert.Equal(t, breaker.StateClosed, cb.State())
}

func TestMockClient(t *testing.T) {
	m := NewMockClient(model.Contact{Email: "seed@example.com"})
	ctx := context.Background()

	created, err := m.Create(ctx, model.Contact{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "c2", created.ID)

	_, err = m.Update(ctx, "c1", model.Contact{Email: "changed@example.com"})
	require.NoError(t, err)

	got, err := m.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "changed@example.com", got.Email)

	_, err = m.Get(ctx, "missing")
	assert.True(t, IsNotFound(err))

	m.FailNext = networkError(nil)
	_, err = m.List(ctx)
	assert.Error(t, err)
	_, err = m.List(ctx)
	assert.NoError(t, err)

	assert.Len(t, m.CallsFor("List"), 2)
}
