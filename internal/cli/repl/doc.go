// Package repl runs castle-cli commands interactively against one open
// connection, so an in-memory store lives for the whole session.
package repl
