// Package template tokenizes request templates into literal text, variable
// references and macro calls.
//
// Grammar (informal):
//
//	template := (literal | ref)*
//	ref      := "${" key "}" | ["$"] ident "(" arglist ")"
//	arglist  := arg ("," arg)*
//	arg      := (backtick-quoted | unquoted)*
//
// Matching rules:
//   - `${` is closed by the balancing `}`; nested `${...}` count toward
//     the balance.
//   - A macro call's closing `)` is found by counting unescaped parens.
//     Backtick segments and `${...}` spans inside the parens are inert.
//   - Text that cannot start a reference is literal. An unterminated
//     reference is literal too, and is recorded as an Issue.
//
// The package knows nothing about which macros exist. Deciding that a
// MacroCall is unknown, and therefore literal, is the evaluator's job.
package template
