package state

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContactBook/internal/model"
	"ContactBook/pkg/contactapi"
)

var (
	ana  = model.Contact{ID: "1", Name: model.ContactName{First: "Ana"}, Email: "ana@example.com"}
	beto = model.Contact{ID: "2", Name: model.ContactName{First: "Beto"}, Email: "beto@example.com"}
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name   string
		before State
		action Action
		want   State
	}{
		{
			name:   "fetch contacts replaces list",
			before: State{Contacts: []model.Contact{beto}},
			action: Action{Type: FetchContacts, Payload: []model.Contact{ana}},
			want:   State{Contacts: []model.Contact{ana}},
		},
		{
			name:   "fetch contact clears message",
			before: State{Message: Message{Type: MessageFail, Title: "Error", Content: "x"}},
			action: Action{Type: FetchContact, Payload: ana},
			want:   State{Contact: ana},
		},
		{
			name:   "create appends and flashes",
			before: State{Contacts: []model.Contact{ana}},
			action: Action{Type: CreateContact, Payload: beto},
			want: State{
				Contacts: []model.Contact{ana, beto},
				Message:  Message{Type: MessageSuccess, Title: "Success", Content: "New Contact created!"},
			},
		},
		{
			name:   "update replaces by id",
			before: State{Contacts: []model.Contact{ana, beto}},
			action: Action{Type: UpdateContact, Payload: model.Contact{ID: "2", Email: "b@example.com"}},
			want: State{
				Contacts: []model.Contact{ana, {ID: "2", Email: "b@example.com"}},
				Message: Message{
					Type:    MessageSuccess,
					Title:   "Update Successful",
					Content: `Contact "b@example.com" has been updated!`,
				},
			},
		},
		{
			name:   "delete removes by id",
			before: State{Contacts: []model.Contact{ana, beto}},
			action: Action{Type: DeleteContact, Payload: ana},
			want: State{
				Contacts: []model.Contact{beto},
				Message: Message{
					Type:    MessageSuccess,
					Title:   "Delete Successful",
					Content: `Contact "ana@example.com" has been deleted!`,
				},
			},
		},
		{
			name:   "flash sets message",
			action: Action{Type: FlashMessage, Payload: Message{Type: MessageFail, Title: "T", Content: "C"}},
			want:   State{Message: Message{Type: MessageFail, Title: "T", Content: "C"}},
		},
		{
			name:   "clear message",
			before: State{Message: Message{Type: MessageSuccess, Title: "T"}},
			action: Action{Type: ClearMessage},
			want:   State{},
		},
		{
			name:   "set loading",
			action: Action{Type: SetLoading, Payload: true},
			want:   State{Loading: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(tt.before, tt.action)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := State{Contacts: []model.Contact{ana, beto}}

	_, err := Reduce(before, Action{Type: UpdateContact, Payload: model.Contact{ID: "1", Email: "changed@example.com"}})
	require.NoError(t, err)
	_, err = Reduce(before, Action{Type: DeleteContact, Payload: ana})
	require.NoError(t, err)

	if diff := cmp.Diff(State{Contacts: []model.Contact{ana, beto}}, before); diff != "" {
		t.Errorf("input state mutated (-want +got):\n%s", diff)
	}
}

func TestReduceErrors(t *testing.T) {
	before := State{Contacts: []model.Contact{ana}}

	got, err := Reduce(before, Action{Type: "NOPE"})
	assert.Error(t, err)
	assert.True(t, cmp.Equal(before, got))

	got, err = Reduce(before, Action{Type: CreateContact, Payload: "not a contact"})
	assert.Error(t, err)
	assert.True(t, cmp.Equal(before, got))
}

func TestStoreDispatch(t *testing.T) {
	store := NewStore(State{})

	require.NoError(t, store.Dispatch(Action{Type: FetchContacts, Payload: []model.Contact{ana}}))
	require.NoError(t, store.Dispatch(Action{Type: CreateContact, Payload: beto}))
	assert.Error(t, store.Dispatch(Action{Type: SetLoading, Payload: "yes"}))

	s := store.State()
	assert.Len(t, s.Contacts, 2)
	assert.Equal(t, "New Contact created!", s.Message.Content)
	assert.False(t, s.Loading)
}

func TestStoreConcurrentDispatch(t *testing.T) {
	store := NewStore(State{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Dispatch(Action{Type: CreateContact, Payload: ana})
		}()
	}
	wg.Wait()

	assert.Len(t, store.State().Contacts, 20)
}

func TestFlashErrorMessage(t *testing.T) {
	store := NewStore(State{})

	FlashErrorMessage(store, &contactapi.APIError{Name: "BadRequest", Message: "email is taken", Code: 400})
	assert.Equal(t, Message{Type: MessageFail, Title: "BadRequest", Content: "email is taken"}, store.State().Message)

	FlashErrorMessage(store, errors.New("boom"))
	assert.Equal(t, Message{Type: MessageFail, Title: "Error", Content: "boom"}, store.State().Message)

	FlashErrorMessage(store, nil)
	assert.Equal(t, "boom", store.State().Message.Content)
}

func TestMessageEmpty(t *testing.T) {
	assert.True(t, Message{}.Empty())
	assert.False(t, Message{Title: "x"}.Empty())
}
