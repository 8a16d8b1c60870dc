// Package shutdown runs named cleanup hooks when the process is asked to
// stop, either by SIGINT/SIGTERM or by an explicit Trigger.
//
// Hooks run in reverse order of registration under one shared timeout, so
// components started last are stopped first.
package shutdown
