// Package binder populates request structs from HTTP requests.
//
// Binders have the signature func(*http.Request, any) error and are passed
// to handler.Wrap, which applies them in order before calling the typed
// handler.
package binder
