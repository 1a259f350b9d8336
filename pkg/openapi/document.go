package openapi

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Document wraps the openapi3.T struct
type Document struct {
	spec    *openapi3.T
	version string
}

// Operation is one path and method pair of the document.
type Operation struct {
	Path        string
	Method      string
	OperationID string
	Summary     string
	Description string
}

func (d *Document) Title() string {
	if d.spec.Info == nil {
		return ""
	}
	return strings.TrimSpace(d.spec.Info.Title)
}

func (d *Document) Description() string {
	if d.spec.Info == nil {
		return ""
	}
	return strings.TrimSpace(d.spec.Info.Description)
}

// Version is the "openapi" or "swagger" field of the source document.
func (d *Document) Version() string {
	return d.version
}

// ServerURL returns the first server with its variables set to their defaults.
func (d *Document) ServerURL() string {
	if len(d.spec.Servers) == 0 || d.spec.Servers[0] == nil {
		return ""
	}
	server := d.spec.Servers[0]
	u := server.URL
	for name, variable := range server.Variables {
		if variable == nil {
			continue
		}
		u = strings.ReplaceAll(u, "{"+name+"}", variable.Default)
	}
	return u
}

// Operations lists every operation sorted by path then method.
func (d *Document) Operations() []Operation {
	var ops []Operation
	if d.spec.Paths == nil {
		return ops
	}
	for path, item := range d.spec.Paths.Map() {
		for method, op := range item.Operations() {
			ops = append(ops, Operation{
				Path:        path,
				Method:      strings.ToUpper(method),
				OperationID: op.OperationID,
				Summary:     strings.TrimSpace(op.Summary),
				Description: strings.TrimSpace(op.Description),
			})
		}
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})
	return ops
}
