// Package render turns invoices into documents: a one-page PDF per invoice
// and an RFC 4180 CSV report over many invoices.
//
// Both renderers are pure functions of their input. The PDF output is
// byte-for-byte reproducible for identical input because the document
// creation date is pinned to the invoice issue date.
//
// PDF text is set in DejaVu Sans Condensed, embedded from fonts/ and
// subset per document, so Latin, Greek and Cyrillic names print as typed.
package render
