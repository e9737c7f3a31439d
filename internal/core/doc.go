// Package core provides the business logic for equipment CSV ingestion.
//
// This package holds all domain logic independent of any transport or
// storage engine. It can be used by the HTTP server, the CLI or tests
// without modification; stores and file storage are supplied through the
// [Store] and [FileStore] interfaces.
//
// # Ingestion
//
// [Service.Ingest] takes an uploaded CSV and moves it through a fixed
// sequence of states:
//
//  1. The upload is written to the [FileStore] and a [Batch] is created.
//  2. The stored file is parsed. The header must contain [RequiredColumns];
//     Flowrate, Pressure and Temperature must be finite numbers.
//  3. All rows are inserted with one bulk call and [RetentionManager.Trim]
//     evicts batches beyond the newest five, inside one transaction.
//  4. [Statistics] are computed from the parsed rows and returned.
//
// Any failure after step 1 deletes the batch and its stored file.
//
// # Statistics
//
// [Aggregate] is the only place statistics are computed. [StatsFromRows]
// and [StatsFromRecords] adapt parsed rows and persisted records to it, so
// the statistics returned at ingestion equal those recomputed later.
//
// # Error Handling
//
// Operations return [*Error] values classified by [Kind]. Technical errors
// are mapped to user-friendly messages using [MapError].
package core
