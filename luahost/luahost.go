// Package luahost exposes the boundary adapter to controller scripts
// running in an embedded Lua interpreter.
//
// Byte sequences cross as Lua strings. Dynamic values cross as tables,
// strings and numbers:
//
//	local bytes = partywire.controller_command_to_bytes({Move = {x = 1, y = 2}})
//	local event = partywire.controller_event_from_bytes(frame)
//	if event.GameToControllerEvent == "Event1" then ... end
//
// Failures raise Lua errors carrying the adapter's message.
package luahost

import (
	"fmt"

	"github.com/Shopify/go-lua"

	"partywire/boundary"
	"partywire/protocol"
)

// Global is the name of the table Open installs.
const Global = "partywire"

// maxDepth bounds nesting of tables passed in from Lua.
const maxDepth = 16

var functions = []lua.RegistryFunction{
	{Name: "controller_event_from_bytes", Function: controllerEventFromBytes},
	{Name: "controller_command_to_bytes", Function: controllerCommandToBytes},
	{Name: "decode", Function: decode},
	{Name: "encode", Function: encode},
	{Name: "schema", Function: schema},
}

// Open installs the partywire table in l.
func Open(l *lua.State) {
	l.NewTable()
	lua.SetFunctions(l, functions, 0)
	l.CreateTable(0, len(protocol.Aliases()))
	for _, alias := range protocol.Aliases() {
		name, _ := protocol.ResolveType(alias)
		l.PushString(name)
		l.SetField(-2, alias)
	}
	l.SetField(-2, "types")
	l.SetGlobal(Global)
}

// NewState returns a state with the standard libraries and partywire open.
func NewState() *lua.State {
	l := lua.NewState()
	lua.OpenLibraries(l)
	Open(l)
	return l
}

func controllerEventFromBytes(l *lua.State) int {
	data := lua.CheckString(l, 1)
	v, err := boundary.ControllerEventFromBytes([]byte(data))
	if err != nil {
		raise(l, err)
	}
	push(l, v)
	return 1
}

func controllerCommandToBytes(l *lua.State) int {
	v := checkValue(l, 1)
	data, err := boundary.ControllerCommandToBytes(v)
	if err != nil {
		raise(l, err)
	}
	l.PushString(string(data))
	return 1
}

func decode(l *lua.State) int {
	name := checkType(l, 1)
	data := lua.CheckString(l, 2)
	v, err := boundary.DecodeNamed(name, []byte(data))
	if err != nil {
		raise(l, err)
	}
	push(l, v)
	return 1
}

func encode(l *lua.State) int {
	name := checkType(l, 1)
	v := checkValue(l, 2)
	data, err := boundary.EncodeNamed(name, v)
	if err != nil {
		raise(l, err)
	}
	l.PushString(string(data))
	return 1
}

func schema(l *lua.State) int {
	types := protocol.Schema()
	out := make([]any, len(types))
	for i, ts := range types {
		out[i] = schemaValue(ts)
	}
	push(l, out)
	return 1
}

func schemaValue(ts protocol.TypeSchema) map[string]any {
	m := map[string]any{"name": ts.Name, "kind": string(ts.Kind)}
	if len(ts.Fields) > 0 {
		m["fields"] = fieldsValue(ts.Fields)
	}
	if len(ts.Variants) > 0 {
		variants := make([]any, len(ts.Variants))
		for i, v := range ts.Variants {
			vm := map[string]any{"name": v.Name, "tag": v.Tag, "shape": string(v.Shape)}
			if len(v.Fields) > 0 {
				vm["fields"] = fieldsValue(v.Fields)
			}
			variants[i] = vm
		}
		m["variants"] = variants
	}
	return m
}

func fieldsValue(fields []protocol.Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		fm := map[string]any{"type": f.Type}
		if f.Name != "" {
			fm["name"] = f.Name
		}
		out[i] = fm
	}
	return out
}

func checkType(l *lua.State, index int) string {
	alias := lua.CheckString(l, index)
	name, ok := protocol.ResolveType(alias)
	if !ok {
		lua.ArgumentError(l, index, fmt.Sprintf("unknown type %q", alias))
	}
	return name
}

func checkValue(l *lua.State, index int) any {
	v, err := toGo(l, index, 0)
	if err != nil {
		lua.ArgumentError(l, index, err.Error())
	}
	return v
}

func raise(l *lua.State, err error) {
	lua.Errorf(l, "%s", err.Error())
}
