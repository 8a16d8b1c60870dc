// Package confloader loads configuration with koanf and watches config files
// with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Maps loaded with LoadMap (command-line flags)
//  2. Environment variables
//  3. The YAML configuration file
//  4. Values already present in the target struct
//
// Environment variables use a double underscore between path segments so
// that single underscores can appear inside key names:
//
//	CASTLE_QUEUE__NODE_LIMIT=4096  ->  queue.node_limit
package confloader
