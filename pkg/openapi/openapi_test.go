package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openapi3YAML = `openapi: 3.0.3
info:
  title: Pet Store
  description: Sample pets service
  version: "1.0"
servers:
  - url: https://{region}.pets.example.com/v1
    variables:
      region:
        default: eu
paths:
  /pets:
    get:
      operationId: listPets
      summary: List pets
      responses:
        "200":
          description: OK
    post:
      summary: Create a pet
      responses:
        "201":
          description: Created
  /pets/{id}:
    delete:
      description: Remove a pet
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
      responses:
        "204":
          description: Deleted
`

const swagger2YAML = `swagger: "2.0"
info:
  title: Legacy Orders
  version: "1.0"
basePath: /api/v1
paths:
  /orders:
    get:
      operationId: listOrders
      responses:
        200:
          description: OK
`

const swagger2JSON = `{
  "swagger": "2.0",
  "info": {"title": "Billing", "version": "1.0"},
  "host": "billing.example.com",
  "basePath": "/v2",
  "schemes": ["https"],
  "paths": {
    "/invoices": {
      "get": {"summary": "List invoices", "responses": {"200": {"description": "OK"}}}
    }
  }
}`

func TestParseOpenAPI3(t *testing.T) {
	doc, err := Parse([]byte(openapi3YAML))
	require.NoError(t, err)
	assert.Equal(t, "3.0.3", doc.Version())
	assert.Equal(t, "Pet Store", doc.Title())
	assert.Equal(t, "https://eu.pets.example.com/v1", doc.ServerURL())

	ops := doc.Operations()
	require.Len(t, ops, 3)
	assert.Equal(t, "GET", ops[0].Method)
	assert.Equal(t, "/pets", ops[0].Path)
	assert.Equal(t, "POST", ops[1].Method)
	assert.Equal(t, "/pets/{id}", ops[2].Path)
}

func TestDefaultImport(t *testing.T) {
	doc, err := Parse([]byte(openapi3YAML))
	require.NoError(t, err)

	apis, err := doc.APIs(ImportOptions{Source: "pets.yaml"})
	require.NoError(t, err)
	require.Len(t, apis, 1)
	assert.Equal(t, "Pet Store", apis[0].Name)
	assert.Equal(t, "https://eu.pets.example.com/v1", apis[0].URL)
	assert.Equal(t, "Sample pets service", apis[0].Description)
}

func TestPerOperationImport(t *testing.T) {
	doc, err := Parse([]byte(openapi3YAML))
	require.NoError(t, err)

	apis, err := doc.APIs(ImportOptions{PerOperation: true})
	require.NoError(t, err)
	require.Len(t, apis, 3)

	assert.Equal(t, "listPets", apis[0].Name)
	assert.Equal(t, "https://eu.pets.example.com/v1/pets", apis[0].URL)
	assert.Equal(t, "List pets", apis[0].Description)

	assert.Equal(t, "POST /pets", apis[1].Name)
	assert.Equal(t, "Create a pet", apis[1].Description)

	assert.Equal(t, "DELETE /pets/{id}", apis[2].Name)
	assert.Equal(t, "https://eu.pets.example.com/v1/pets/{id}", apis[2].URL)
	assert.Equal(t, "Remove a pet", apis[2].Description)
}

func TestSwagger2YAMLNeedsBaseURL(t *testing.T) {
	doc, err := Parse([]byte(swagger2YAML))
	require.NoError(t, err)
	assert.Equal(t, "2.0", doc.Version())

	_, err = doc.APIs(ImportOptions{})
	assert.ErrorIs(t, err, ErrNoBaseURL)

	apis, err := doc.APIs(ImportOptions{BaseURL: "http://localhost:9000/", Source: "/tmp/specs/orders.yaml"})
	require.NoError(t, err)
	require.Len(t, apis, 1)
	assert.Equal(t, "Legacy Orders", apis[0].Name)
	assert.Equal(t, "http://localhost:9000/api/v1", apis[0].URL)
	assert.Equal(t, "Imported from orders.yaml", apis[0].Description)

	_, err = doc.APIs(ImportOptions{BaseURL: "localhost:9000"})
	assert.Error(t, err)
}

func TestSwagger2JSON(t *testing.T) {
	doc, err := Parse([]byte(swagger2JSON))
	require.NoError(t, err)

	apis, err := doc.APIs(ImportOptions{PerOperation: true})
	require.NoError(t, err)
	require.Len(t, apis, 1)
	assert.Equal(t, "GET /invoices", apis[0].Name)
	assert.Equal(t, "https://billing.example.com/v2/invoices", apis[0].URL)
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse([]byte(`{"name": "not a spec"}`))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Parse([]byte("openapi: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFileAndURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(openapi3YAML), 0o600))

	content, err := Load(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, openapi3YAML, string(content))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(swagger2JSON))
	}))
	defer srv.Close()

	content, err = Load(context.Background(), srv.URL+"/openapi.json", srv.Client())
	require.NoError(t, err)
	assert.Equal(t, swagger2JSON, string(content))

	_, err = Load(context.Background(), srv.URL+"/missing", srv.Client())
	assert.ErrorContains(t, err, "non-200")

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestPerOperationImportWithoutSummary(t *testing.T) {
	doc, err := Parse([]byte(swagger2YAML))
	require.NoError(t, err)

	apis, err := doc.APIs(ImportOptions{BaseURL: "http://localhost:9000", Source: "/tmp/specs/orders.yaml", PerOperation: true})
	require.NoError(t, err)
	require.Len(t, apis, 1)
	assert.Equal(t, "listOrders", apis[0].Name)
	assert.Equal(t, "Imported from orders.yaml", apis[0].Description)
}
