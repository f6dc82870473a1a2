package state

import (
	"fmt"
	"sync"

	"ContactBook/internal/model"
)

// ActionType 页面状态的变更类型
type ActionType string

const (
	FetchContacts ActionType = "FETCH_CONTACTS"
	FetchContact  ActionType = "FETCH_CONTACT"
	CreateContact ActionType = "CREATE_CONTACT"
	UpdateContact ActionType = "UPDATE_CONTACT"
	DeleteContact ActionType = "DELETE_CONTACT"
	FlashMessage  ActionType = "FLASH_MESSAGE"
	ClearMessage  ActionType = "CLEAR_MESSAGE"
	SetLoading    ActionType = "SET_LOADING"
)

const (
	MessageSuccess = "success"
	MessageFail    = "fail"
)

// Message 页面顶部的提示信息，零值表示没有提示
type Message struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (m Message) Empty() bool {
	return m == Message{}
}

// State 一次页面渲染所需的全部数据
type State struct {
	Contacts []model.Contact
	Contact  model.Contact
	Loading  bool
	Message  Message
}

// Action Payload 的类型由 Type 决定：
//
//	FETCH_CONTACTS  []model.Contact
//	FETCH_CONTACT / CREATE_CONTACT / UPDATE_CONTACT / DELETE_CONTACT  model.Contact
//	FLASH_MESSAGE   Message
//	SET_LOADING     bool
//	CLEAR_MESSAGE   无
type Action struct {
	Type    ActionType
	Payload interface{}
}

// Reduce 纯函数，出错时原样返回 s
func Reduce(s State, a Action) (State, error) {
	switch a.Type {
	case FetchContacts:
		contacts, ok := a.Payload.([]model.Contact)
		if !ok {
			return s, payloadError(a)
		}
		s.Contacts = append([]model.Contact(nil), contacts...)
		return s, nil

	case FetchContact:
		contact, ok := a.Payload.(model.Contact)
		if !ok {
			return s, payloadError(a)
		}
		s.Contact = contact
		s.Message = Message{}
		return s, nil

	case CreateContact:
		contact, ok := a.Payload.(model.Contact)
		if !ok {
			return s, payloadError(a)
		}
		s.Contacts = append(append([]model.Contact(nil), s.Contacts...), contact)
		s.Message = Message{
			Type:    MessageSuccess,
			Title:   "Success",
			Content: "New Contact created!",
		}
		return s, nil

	case UpdateContact:
		contact, ok := a.Payload.(model.Contact)
		if !ok {
			return s, payloadError(a)
		}
		contacts := make([]model.Contact, len(s.Contacts))
		for i, item := range s.Contacts {
			if item.ID == contact.ID {
				item = contact
			}
			contacts[i] = item
		}
		s.Contacts = contacts
		s.Message = Message{
			Type:    MessageSuccess,
			Title:   "Update Successful",
			Content: `Contact "` + contact.Email + `" has been updated!`,
		}
		return s, nil

	case DeleteContact:
		contact, ok := a.Payload.(model.Contact)
		if !ok {
			return s, payloadError(a)
		}
		contacts := make([]model.Contact, 0, len(s.Contacts))
		for _, item := range s.Contacts {
			if item.ID != contact.ID {
				contacts = append(contacts, item)
			}
		}
		s.Contacts = contacts
		s.Message = Message{
			Type:    MessageSuccess,
			Title:   "Delete Successful",
			Content: `Contact "` + contact.Email + `" has been deleted!`,
		}
		return s, nil

	case FlashMessage:
		msg, ok := a.Payload.(Message)
		if !ok {
			return s, payloadError(a)
		}
		s.Message = msg
		return s, nil

	case ClearMessage:
		s.Message = Message{}
		return s, nil

	case SetLoading:
		loading, ok := a.Payload.(bool)
		if !ok {
			return s, payloadError(a)
		}
		s.Loading = loading
		return s, nil

	default:
		return s, fmt.Errorf("unknown action type %q", a.Type)
	}
}

func payloadError(a Action) error {
	return fmt.Errorf("action %s: unexpected payload type %T", a.Type, a.Payload)
}

// Store 每个请求一份，handler 与中间件共享
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore(initial State) *Store {
	return &Store{state: initial}
}

func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.state, a)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
