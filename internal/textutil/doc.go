// Package textutil provides small text helpers shared by the report writers and
// the CLI.
//
// The primary use cases are:
//   - Normalizing catalog titles so every audit line stays on a single line
//   - Title-casing labels such as season names for display
package textutil
