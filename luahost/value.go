package luahost

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

// push converts a dynamic value to Lua. Numbers of every width become Lua
// numbers.
func push(l *lua.State, v any) {
	switch x := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(x)
	case string:
		l.PushString(x)
	case uint16:
		l.PushNumber(float64(x))
	case uint32:
		l.PushNumber(float64(x))
	case float32:
		l.PushNumber(float64(x))
	case float64:
		l.PushNumber(x)
	case int:
		l.PushNumber(float64(x))
	case []any:
		checkStack(l)
		l.CreateTable(len(x), 0)
		for i, e := range x {
			push(l, e)
			l.RawSetInt(-2, i+1)
		}
	case map[string]any:
		checkStack(l)
		l.CreateTable(0, len(x))
		for k, e := range x {
			push(l, e)
			l.SetField(-2, k)
		}
	default:
		lua.Errorf(l, "cannot convert %T to lua", v)
	}
}

// checkStack makes room for a table and one element.
func checkStack(l *lua.State) {
	if !l.CheckStack(2) {
		lua.Errorf(l, "lua stack exhausted")
	}
}

// toGo converts the Lua value at index. A table whose keys are exactly
// 1..n becomes a []any, any other table a map[string]any. An empty table
// becomes an empty []any.
func toGo(l *lua.State, index, depth int) (any, error) {
	switch l.TypeOf(index) {
	case lua.TypeNil, lua.TypeNone:
		return nil, nil
	case lua.TypeBoolean:
		return l.ToBoolean(index), nil
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return n, nil
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s, nil
	case lua.TypeTable:
		if depth >= maxDepth {
			return nil, fmt.Errorf("table nested deeper than %d", maxDepth)
		}
		return tableToGo(l, l.AbsIndex(index), depth+1)
	}
	return nil, fmt.Errorf("unsupported lua type %s", lua.TypeNameOf(l, index))
}

// tableToGo walks the table at the absolute index. Each level holds a key
// and a value on the stack while it recurses.
func tableToGo(l *lua.State, index, depth int) (any, error) {
	if !l.CheckStack(3) {
		return nil, fmt.Errorf("lua stack exhausted at depth %d", depth)
	}
	isArray := true
	maxIndex, count := 0, 0
	l.PushNil()
	for l.Next(index) {
		count++
		if isArray {
			if l.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := l.ToInteger(-2); ok && idx > 0 {
				if n, _ := l.ToNumber(-2); float64(idx) != n {
					isArray = false
				} else if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		l.Pop(1)
	}

	if isArray && maxIndex == count {
		out := make([]any, 0, count)
		for i := 1; i <= count; i++ {
			l.RawGetInt(index, i)
			v, err := toGo(l, -1, depth)
			l.Pop(1)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	}

	out := make(map[string]any, count)
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) != lua.TypeString {
			kind := lua.TypeNameOf(l, -2)
			l.Pop(2)
			return nil, fmt.Errorf("table key of type %s, want string", kind)
		}
		key, _ := l.ToString(-2)
		v, err := toGo(l, -1, depth)
		if err != nil {
			l.Pop(2)
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = v
		l.Pop(1)
	}
	return out, nil
}
