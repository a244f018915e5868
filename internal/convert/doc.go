// Package convert turns a decoded FIT record stream into a CSV file.
//
// The header is computed once per file from the union of keys across all
// records and never reordered after the first row is written. Two decode
// passes run per conversion: one to discover the schema, one to emit rows.
// Failures bound to the file itself carry the ErrPermanent marker since
// re-running the converter on the same input cannot change the outcome;
// system errors reading the input are returned unmarked and may be retried.
package convert
