// Package output renders castle-cli results.
//
// Results are printed as a table (the default), JSON or YAML. Types that
// know their own tabular shape implement Tabular; plain structs fall back to
// a FIELD/VALUE listing and slices of structs to one row per element.
package output
