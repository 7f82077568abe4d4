// Package components renders the server-side views of the UI.
//
// Views are templ components, so handlers can render full pages and
// datastar can patch single fragments by id.
package components

//go:generate templ generate
