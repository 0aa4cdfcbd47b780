// Package vectorstore pairs the flat vector index with its metadata store
// and keeps both durable under a single directory: vectors in a
// checksummed binary snapshot, records in SQLite. Every vector offset has
// exactly one metadata record with the same id; the pairing is verified
// when the store opens and whenever search touches a record.
package vectorstore
