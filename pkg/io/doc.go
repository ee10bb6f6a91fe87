// Package io reads and writes record lists for label generation.
//
// # Formats
//
// Records come from the inventory service or from a user as JSON or CSV.
//
// JSON is an array of objects with "id" and "name":
//
//	[
//	  {"id": 1, "name": "M3 Bolt"},
//	  {"id": 2, "name": "Breadboarding Bin"}
//	]
//
// CSV has two columns, id then name. A first row whose id column is not a
// number is treated as a header and skipped:
//
//	id,name
//	1,M3 Bolt
//	2,Breadboarding Bin
//
// # Import
//
// Use [ImportRecords] to read a file, choosing the format by extension, or
// [ReadJSON] and [ReadCSV] to read from any io.Reader.
//
// # Export
//
// [WriteJSON] writes records back out, and [WriteFailures] writes a CSV
// report of records that produced no label.
package io
