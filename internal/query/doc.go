// Package query provides filtering and extraction over recorded trace data:
// expression filters for selecting sessions or calls, and JSONPath
// extraction for pulling values out of recorded payloads.
package query
