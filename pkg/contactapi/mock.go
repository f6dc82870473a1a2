package contactapi

import (
	"context"
	"strconv"
	"sync"

	"ContactBook/internal/model"
)

type MockCall struct {
	Method  string
	ID      string
	Contact model.Contact
}

// MockClient 内存版后端，实现 Client 接口，供页面和服务层测试使用
type MockClient struct {
	mu       sync.Mutex
	Calls    []MockCall
	contacts []model.Contact
	nextID   int

	// FailNext 非 nil 时，下一次调用返回该错误并自动复位
	FailNext error
	// Hook 在每次调用记录后执行，用于模拟慢请求
	Hook func(ctx context.Context, call MockCall)
}

var _ Client = (*MockClient)(nil)

func NewMockClient(seed ...model.Contact) *MockClient {
	m := &MockClient{nextID: 1}
	for _, c := range seed {
		if c.ID == "" {
			c.ID = m.newID()
		}
		m.contacts = append(m.contacts, c)
	}
	return m
}

func (m *MockClient) newID() string {
	id := "c" + strconv.Itoa(m.nextID)
	m.nextID++
	return id
}

// record 返回待注入的错误
func (m *MockClient) record(ctx context.Context, call MockCall) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	hook := m.Hook
	err := m.FailNext
	m.FailNext = nil
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, call)
	}
	return err
}

// CallsFor 返回指定方法的调用记录
func (m *MockClient) CallsFor(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

func (m *MockClient) Contacts() []model.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Contact(nil), m.contacts...)
}

func (m *MockClient) List(ctx context.Context) ([]model.Contact, error) {
	if err := m.record(ctx, MockCall{Method: "List"}); err != nil {
		return nil, err
	}
	return m.Contacts(), nil
}

func (m *MockClient) Get(ctx context.Context, id string) (model.Contact, error) {
	if err := m.record(ctx, MockCall{Method: "Get", ID: id}); err != nil {
		return model.Contact{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Contact{}, notFound(id)
}

func (m *MockClient) Create(ctx context.Context, contact model.Contact) (model.Contact, error) {
	if err := m.record(ctx, MockCall{Method: "Create", Contact: contact}); err != nil {
		return model.Contact{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	contact.ID = m.newID()
	m.contacts = append(m.contacts, contact)
	return contact, nil
}

func (m *MockClient) Update(ctx context.Context, id string, contact model.Contact) (model.Contact, error) {
	if err := m.record(ctx, MockCall{Method: "Update", ID: id, Contact: contact}); err != nil {
		return model.Contact{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		if m.contacts[i].ID == id {
			contact.ID = id
			m.contacts[i] = contact
			return contact, nil
		}
	}
	return model.Contact{}, notFound(id)
}

func (m *MockClient) Delete(ctx context.Context, id string) (model.Contact, error) {
	if err := m.record(ctx, MockCall{Method: "Delete", ID: id}); err != nil {
		return model.Contact{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.contacts {
		if c.ID == id {
			m.contacts = append(m.contacts[:i], m.contacts[i+1:]...)
			return c, nil
		}
	}
	return model.Contact{}, notFound(id)
}

func notFound(id string) *APIError {
	return &APIError{
		Name:      "NotFound",
		Message:   "No record found for id '" + id + "'",
		Code:      404,
		ClassName: "not-found",
	}
}
