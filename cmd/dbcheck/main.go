// Package main provides dbcheck, a diagnostic CLI for the dashboard database.
//
// Usage:
//
//	dbcheck connection
//	dbcheck data
//	dbcheck migrate
//
// Connection settings come from the same DB_* environment variables (and
// .env file) as the dashboard server.
package main

func main() {
	Execute()
}
