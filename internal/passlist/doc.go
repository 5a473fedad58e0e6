// Package passlist turns an uploaded file into the set of normalized candidate
// emails that advance from a stage.
//
// The engine consumes a Set and never looks at file formats; Parser is the
// boundary. DelimitedParser handles CSV, TSV, and one-address-per-line text.
// Spreadsheet workbooks are rejected as unsupported.
package passlist
