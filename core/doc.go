// Package core contains the shared data model and contracts of supplymesh:
// capabilities, handler registrations, task requests and results, streaming
// events and the error taxonomy. All other packages depend inward on core;
// core depends on nothing but the standard library and uuid.
package core
