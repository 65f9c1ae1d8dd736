// Package kv provides the durable key/value table behind the client's
// persistent store.
//
// # Overview
//
// Repository describes byte-level CRUD over string keys. SQLiteRepository
// persists rows in the kv table created by the embedded goose migrations
// (see InitDatabase). Every Set is a single upsert statement, so a value is
// either fully replaced or left as it was. SetMany replaces several keys in
// one transaction.
//
// Typical Usage
//
//	db, _ := kv.InitDatabase(ctx, "data/diary.db")
//	repo := kv.NewSQLiteRepository(db)
//	_ = repo.Set(ctx, "draft_state", blob)
//	v, _ := repo.Get(ctx, "draft_state") // (nil, nil) when absent
package kv
