package dashboard

import (
	"strings"
	"testing"

	"github.com/pyneda/stapi/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIList(t *testing.T) {
	list := NewAPIList([]client.API{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}})
	require.Equal(t, 2, list.Len())

	list.Add(client.API{ID: 3, Name: "three"})
	assert.Equal(t, []string{"one", "two", "three"}, names(list.Items()))

	assert.True(t, list.Remove(2))
	assert.False(t, list.Remove(2))
	assert.Equal(t, []string{"one", "three"}, names(list.Items()))

	list.Replace(client.API{ID: 1, Name: "uno"})
	list.Replace(client.API{ID: 9, Name: "nine"})
	assert.Equal(t, []string{"uno", "three", "nine"}, names(list.Items()))

	api, ok := list.Find(3)
	assert.True(t, ok)
	assert.Equal(t, "three", api.Name)
	_, ok = list.Find(42)
	assert.False(t, ok)

	list.Reset(nil)
	assert.Zero(t, list.Len())
}

func TestAPIListItemsIsACopy(t *testing.T) {
	list := NewAPIList([]client.API{{ID: 1, Name: "one"}})
	items := list.Items()
	items[0].Name = "changed"
	api, _ := list.Find(1)
	assert.Equal(t, "one", api.Name)
}

func TestAPIFormToAPI(t *testing.T) {
	owner := &client.User{PK: 5, Username: "alice"}

	api, err := APIForm{Name: " Shop ", URL: "https://shop.example.com", Description: "store"}.ToAPI(owner)
	require.NoError(t, err)
	assert.Equal(t, "Shop", api.Name)
	assert.Equal(t, 5, api.AddedBy)
	assert.Zero(t, api.ID)

	_, err = APIForm{Name: "Shop", URL: "https://shop.example.com"}.ToAPI(nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = APIForm{Name: "", URL: "https://shop.example.com"}.ToAPI(owner)
	assert.ErrorContains(t, err, "Name is required")

	for _, bad := range []string{"shop.example.com", "ftp://shop.example.com", "/relative"} {
		_, err = APIForm{Name: "Shop", URL: bad, Description: "store"}.ToAPI(owner)
		assert.Error(t, err, bad)
	}
}

func TestAPIFormRequiresDescription(t *testing.T) {
	owner := &client.User{PK: 5}
	for _, desc := range []string{"", "   "} {
		_, err := APIForm{Name: "Shop", URL: "https://shop.example.com", Description: desc}.ToAPI(owner)
		assert.ErrorContains(t, err, "Description is required", "%q", desc)
	}
}

func TestAPIFormNameLength(t *testing.T) {
	owner := &client.User{PK: 5}
	form := APIForm{Name: strings.Repeat("n", MaxNameLength), URL: "https://shop.example.com", Description: "store"}
	_, err := form.ToAPI(owner)
	assert.NoError(t, err)

	form.Name += "n"
	_, err = form.ToAPI(owner)
	assert.ErrorContains(t, err, "Name")
}

func TestEditForm(t *testing.T) {
	form := EditForm(client.API{ID: 7, Name: "Shop", URL: "http://shop.local", Description: "d"})
	assert.True(t, form.Editing())
	assert.False(t, APIForm{}.Editing())

	api, err := form.ToAPI(&client.User{PK: 1})
	require.NoError(t, err)
	assert.Equal(t, 7, api.ID)
}

func names(apis []client.API) []string {
	out := make([]string, 0, len(apis))
	for _, a := range apis {
		out = append(out, a.Name)
	}
	return out
}
