// Package domain defines the request, completion and callback types shared
// by the driver boundary, the completion pipeline and the connection.
//
// Nothing in this package blocks or allocates on behalf of the driver; the
// types are plain values that can be copied across goroutines.
package domain
