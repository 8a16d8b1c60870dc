// Package handler implements the operational HTTP endpoints.
package handler
