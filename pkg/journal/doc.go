// Package journal persists invocation records.
//
// The journal is optional. When configured, the invocation loop records
// every handler call through the core.Journal interface and a Pruner keeps
// the table bounded on a cron schedule. GormJournal works with SQLite and
// PostgreSQL.
package journal
