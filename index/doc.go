// Package index defines the shared types and errors for vector search
// indexes.
//
// The only implementation is the flat (exact) index in the flat subpackage;
// the types here keep its search surface decoupled from the stores that
// consume it.
package index
