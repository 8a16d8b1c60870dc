package confloader

import (
	"errors"
	"strings"
)

// errNoBytes is returned by mapProvider.ReadBytes; koanf falls back to Read.
var errNoBytes = errors.New("confloader: map provider has no byte form")

// mapProvider is a koanf provider over an in-memory map. Dotted keys are
// expanded into nested maps.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errNoBytes
}

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		parts := strings.Split(k, ".")
		cur := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
	return out, nil
}
