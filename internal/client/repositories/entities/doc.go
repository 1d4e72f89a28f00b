// Package entities persists cached vocabulary records (words, sentences) in
// per-kind SQLite tables. Each row holds the JSON payload of the record and
// its sync status.
package entities
