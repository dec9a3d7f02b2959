/*
Package tool defines the callable tools a chat request can advertise to a
model. A Definition carries a name, a description, and a JSON schema for the
call arguments; every provider lowers the same definition into its own wire
shape, so tools are declared once and work against any backend.

# Design Decisions

  - Schema-first: a tool is its argument schema. The functions that execute
    tool calls live with the caller, not here.
  - Reflection optional: schemas can be written by hand or reflected from a
    parameter struct with ReflectSchema / Params.
  - Ordered properties: schemas keep their property order, so the JSON a
    model sees is stable across runs.
  - Functional options: construction follows the same option pattern as the
    rest of the module.

# Usage

	type lsParams struct {
		Path string `json:"path" jsonschema:"description=Directory to list"`
	}

	var lsTool = tool.Must("ls",
		tool.Description("List the files in a directory"),
		tool.Params[lsParams](),
	)

A definition with no schema still serializes as a valid empty-object schema,
so argument-free tools need nothing beyond a name.
*/
package tool
