// Package expand turns request templates into request strings.
//
// A template mixes literal text, variable references (`${name}`) and macro
// calls (`NAME(args)` or `$NAME(args)`). Expand works in two stages:
//
//  1. Variables. Every `${key}` is replaced from the Context. A value that
//     contains references is expanded in turn, up to the Context's maximum
//     depth. The substituted value is percent-encoded once with EncodeVar.
//  2. Macros. Registered calls are evaluated innermost first. Each handler
//     sees fully resolved string arguments. The result of a call at the top
//     level is encoded once with EncodeComponent.
//
// Handlers may return deferred values. Sibling deferred calls run
// concurrently, and the output is assembled by position.
//
// Nothing in a template makes Expand fail. Each fallback is listed under
// ErrorCode.
package expand
