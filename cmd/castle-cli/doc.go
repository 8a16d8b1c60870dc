// Package main provides the entry point for castle-cli.
//
// castle-cli opens a loopback store and drives requests through the castle
// completion pipeline, one command per invocation or interactively:
//
//	castle-cli --dir ./data put greeting hello
//	castle-cli --dir ./data -o json get greeting
//	castle-cli --in-memory bench -n 100000 --read
//	castle-cli --in-memory shell
package main
