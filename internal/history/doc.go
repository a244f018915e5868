// Package history persists conversion outcomes in a SQLite database so the
// command-line tools can report on past daemon activity. Old reports are
// pruned on daemon startup according to the configured retention window.
package history
