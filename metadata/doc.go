// Package metadata stores the document record attached to every vector in
// the store. Records live in SQLite keyed by the vector's offset id, and a
// Roaring Bitmap index over vault names supports filtered search.
package metadata
