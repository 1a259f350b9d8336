// Package dashboard holds the view state shared by the CLI and the terminal
// dashboard: the API list and form, the tests board and the results view.
package dashboard

import (
	"errors"
	"strings"

	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/client"
)

// ErrNotAuthenticated is returned when saving a form without a current user.
var ErrNotAuthenticated = errors.New("user is not authenticated")

// APIList is the ordered list of registered APIs.
type APIList struct {
	items []client.API
}

func NewAPIList(apis []client.API) *APIList {
	l := &APIList{}
	l.Reset(apis)
	return l
}

func (l *APIList) Reset(apis []client.API) {
	l.items = append([]client.API(nil), apis...)
}

func (l *APIList) Items() []client.API {
	return append([]client.API(nil), l.items...)
}

func (l *APIList) Len() int {
	return len(l.items)
}

// Add appends an API confirmed by the backend.
func (l *APIList) Add(api client.API) {
	l.items = append(l.items, api)
}

// Remove drops the API with id and reports whether it was present.
func (l *APIList) Remove(id int) bool {
	for i, api := range l.items {
		if api.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps in an updated API, appending it when unknown.
func (l *APIList) Replace(api client.API) {
	for i := range l.items {
		if l.items[i].ID == api.ID {
			l.items[i] = api
			return
		}
	}
	l.items = append(l.items, api)
}

func (l *APIList) Find(id int) (client.API, bool) {
	for _, api := range l.items {
		if api.ID == id {
			return api, true
		}
	}
	return client.API{}, false
}

// MaxNameLength is the longest API name the backend stores.
const MaxNameLength = 255

// APIForm is the create/edit form for an API. ID is zero when creating.
type APIForm struct {
	ID          int
	Name        string `validate:"required,max=255"`
	URL         string `validate:"required,http_url"`
	Description string `validate:"required"`
}

// EditForm prefills the form from an existing API.
func EditForm(api client.API) APIForm {
	return APIForm{ID: api.ID, Name: api.Name, URL: api.URL, Description: api.Description}
}

func (f APIForm) Editing() bool {
	return f.ID != 0
}

func (f APIForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.URL = strings.TrimSpace(f.URL)
	f.Description = strings.TrimSpace(f.Description)
	return lib.ValidateStruct(f)
}

// ToAPI validates the form and stamps it with the owner's primary key.
func (f APIForm) ToAPI(owner *client.User) (client.API, error) {
	if owner == nil || owner.PK == 0 {
		return client.API{}, ErrNotAuthenticated
	}
	if err := f.Validate(); err != nil {
		return client.API{}, err
	}
	return client.API{
		ID:          f.ID,
		Name:        strings.TrimSpace(f.Name),
		URL:         strings.TrimSpace(f.URL),
		Description: strings.TrimSpace(f.Description),
		AddedBy:     owner.PK,
	}, nil
}
