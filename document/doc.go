// Package document turns uploaded study materials into an ordered chunk sequence.
//
// Extract reads plain text, PDF and Word (.docx) uploads; Splitter cuts the
// combined text into overlapping chunks sized for a single generator call.
package document
