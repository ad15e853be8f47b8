package luarunner

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/lomoussw/live-plugin/internal/engine/loadctx"
)

// newState creates a sandboxed Lua state for one plugin execution.
//
// Libraries are opened selectively: base, table, string, math, and
// package. io, os, and debug stay closed so plugins cannot reach outside
// their loading context. The raw file loaders (dofile, loadfile, load,
// loadstring) are removed; require remains and resolves only against the
// context's package.path.
func newState(ctx *loadctx.Context) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	lua.OpenPackage(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	pkg := L.GetGlobal("package")
	if tbl, ok := pkg.(*lua.LTable); ok {
		L.SetField(tbl, "path", lua.LString(ctx.LuaPath()))
		L.SetField(tbl, "cpath", lua.LString(""))
	}

	return L
}
