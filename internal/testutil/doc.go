// Package testutil contains helper builders and stub handlers used across
// tests to reduce boilerplate when constructing core model objects (task
// requests, capabilities, handlers) and asserting dispatch behaviors. These
// helpers are intentionally minimal and avoid adding third-party
// dependencies. They are not intended for production usage.
package testutil
