package main

import (
	"fmt"

	"github.com/Shopify/go-lua"

	"partywire/luahost"
)

// LuaCmd runs a controller script with the partywire table installed.
type LuaCmd struct {
	Script string `arg:"" type:"existingfile" help:"Lua script to run."`
}

func (c *LuaCmd) Run(e *env) error {
	l := luahost.NewState()
	if err := lua.DoFile(l, c.Script); err != nil {
		return fmt.Errorf("lua %s: %w", c.Script, err)
	}
	return nil
}
