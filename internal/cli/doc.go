// Package cli renders card lists for deckhand's command-line output.
//
// Supported formats:
//   - table: rounded go-pretty table with a colour-coded type column
//   - wide: table plus summary and URI columns
//   - plain: kubectl-style columns without box drawing, for grep and awk
//   - json and yaml: the ordered list as structured data
package cli
