// Package postgresengine provides generic PostgreSQL persistence engines.
//
// An Engine stores records of any type in one table and offers filtered, sorted and
// paged reads plus inserts and deletes. IdentifiableEngine adds operations keyed by the
// "id" column, and JSONDocumentEngine stores whole records as jsonb documents.
// All of them work over pgx, sql.DB (lib/pq) and sqlx connections.
//
// Key features:
//   - Owned connections (opened and closed with the engine) or borrowed ones
//   - Table and index creation on Open when the table does not exist yet
//   - Caller-supplied SQL filters and sort clauses, spliced verbatim
//   - Upserts, full and partial updates that return the stored row
//   - Optional logging, metrics and tracing
//
// Usage examples:
//
//	resolver := connection.NewResolver(
//		&connection.Credential{Username: "app", Password: "secret"},
//		connection.Descriptor{Host: "localhost", Port: 5432, Database: "app"},
//	)
//
//	notes, _ := postgresengine.NewJSONDocumentEngine[*Note, string](
//		"notes",
//		postgresengine.WithConnectionConfig(resolver, connection.DefaultOptions()),
//		postgresengine.WithLogger(slog.Default()),
//	)
//	_ = notes.Open(ctx)
//	defer notes.Close(ctx)
//
//	created, _ := notes.Create(ctx, &Note{Title: "groceries"})
//	page, _ := notes.GetPageByFilter(ctx, `data->>'title' LIKE 'g%'`, persistence.NewPagingParams(0, 20, true), `id`, "")
//
// Filters, sort clauses and select lists are never escaped. Do not build them from untrusted input.
package postgresengine
