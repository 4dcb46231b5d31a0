// Package persistence provides the core abstractions of a generic relational
// persistence layer.
//
// Any record type gets CRUD, paging, filtering and JSON-document storage on top
// of a relational database without per-entity SQL. This package defines the
// types shared by all engine implementations:
//   - RecordMap: the generic column->value row representation
//   - Codec: converts between a typed record and a RecordMap
//   - Identifiable: records exposing a single identity field
//   - PagingParams / Page: paging input and output
//   - RawSQL: caller-composed filter and sort fragments
//   - Error: the configuration / connection / execution error taxonomy
//
// Common usage pattern:
//
//	engine, _ := postgresengine.NewJSONDocumentEngine[*Note, string](
//		"notes",
//		postgresengine.WithConnectionConfig(resolver, connection.DefaultOptions()),
//		postgresengine.WithIDGenerator(persistence.NewUUID),
//	)
//
//	_ = engine.Open(ctx)
//	defer engine.Close(ctx)
//
//	created, _ := engine.Create(ctx, &Note{Key: "Key 1", Content: "Content 1"})
//	page, _ := engine.GetPageByFilter(ctx, "", persistence.NewPagingParams(0, 10, true), "", "")
package persistence
