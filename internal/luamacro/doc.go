// Package luamacro defines macros in Lua.
//
// A script defines macros as functions of a table, either returned from the
// chunk or assigned to the global `macros`:
//
//	local M = {}
//	function M.SHOUT(s) return string.upper(s) .. "!" end
//	return M
//
// Each function becomes a synchronous macro of the same name. Arguments are
// passed as strings; a string, number or boolean result is converted back to
// a string and nil becomes "".
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened, and the
// chunk loaders (dofile, loadfile, load, loadstring, require) are removed.
// Every call runs under a timeout.
//
// gopher-lua's LState is not goroutine-safe, so a State serializes all
// calls with a mutex. Macros expanded concurrently wait for each other.
package luamacro
