/*
Package rscache implements incrementally maintained, sorted query-result views
(“result set caches”) over a collection of hierarchical records.

We implement:

1. Queries, which flatten one record into zero, one or many rows (tokens).

2. A token comparer, a strict total order over tokens derived from a query's
sort definitions.

3. Caches, each holding one sorted view fed by one or more queries, maintained
one record at a time.

4. A manager, a named registry of caches that fans every record mutation out
to all of them.

# Technical Details

**Tokens.**
A token is a row: the owning record's RepositoryID plus a map of field label to
Value. Identity is never stored in the field map. A record that has nothing to
contribute still yields one “unpopulated” token, so views can list records that
lack a value.

**Ordering.**
Tokens live in a B-tree keyed by the token comparer, so “compares equal” means
“same slot”. The comparer therefore never returns 0 for tokens with different
content: declared sort fields first, then RepositoryID, then the query label,
then every remaining field. Locale-aware comparers can report distinct strings
as equal; when that happens for values whose fingerprints differ, the field is
re-decided ordinally.

**Maintenance.**
A cache remembers which tokens each record contributed (like a table row
remembering its index keys). Updating a record drops exactly those tokens,
re-runs every registered query against the record and inserts the new tokens.
Tokens of other records are never touched.

**Deletion.**
By default a cache refuses to drop rows for an id that no longer resolves in
the backing repository (DeleteRequiresRecord). Repositories that notify caches
after the record is gone should configure DeleteAllowsMissing.

**Concurrency.**
A cache has no internal locking and assumes a single writer. The Manager
serializes all fan-out mutations behind one lock so that every cache observes
mutations in the same order.
*/
package rscache
