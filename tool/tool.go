package tool

import (
	"fmt"

	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition describes one callable tool as advertised to a model: a name,
// a human-readable description, and a JSON schema for the call arguments.
// Providers lower a Definition into their own wire shape, so the same
// definition works against every backend.
type Definition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema,omitempty"`
}

var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ReflectSchema builds the argument schema for a tool from a parameter
// struct type. Field names, json tags, and jsonschema struct tags carry
// through, so the usual way to define a tool is a small struct per tool.
func ReflectSchema[T any]() *jsonschema.Schema {
	var zero T
	schema := reflector.Reflect(&zero)
	schema.Version = ""
	return schema
}

// EmptySchema returns a schema accepting an empty object, for tools that
// take no arguments.
func EmptySchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
}

// Schema returns the definition's input schema, or an empty object schema
// when none was set. Providers call this so the wire always carries a valid
// schema.
func (d Definition) Schema() *jsonschema.Schema {
	if d.InputSchema != nil {
		return d.InputSchema
	}
	return EmptySchema()
}

// Option is a function that modifies a tool definition during construction.
type Option = opts.Option[Definition]

// Description sets the tool's description.
var Description = opts.ForName[Definition, string]("Description")

// Schema sets an explicit argument schema on the definition.
var Schema = opts.ForName[Definition, *jsonschema.Schema]("InputSchema")

// Params reflects the argument schema from the given parameter struct type.
func Params[T any]() Option {
	return opts.Type[Definition](func(d *Definition) error {
		d.InputSchema = ReflectSchema[T]()
		return nil
	})
}

// New creates a tool definition with the given name and options.
func New(name string, options ...Option) (Definition, error) {
	if name == "" {
		return Definition{}, fmt.Errorf("tool: name is required")
	}
	def := Definition{Name: name}
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Must is New with a panic on error, for package-level tool declarations.
func Must(name string, options ...Option) Definition {
	def, err := New(name, options...)
	if err != nil {
		panic(err)
	}
	return def
}
