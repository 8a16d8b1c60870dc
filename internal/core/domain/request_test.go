package domain

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRequest_Validate(t *testing.T) {
	longKey := bytes.Repeat([]byte("k"), MaxKeySize+1)
	buf := make([]byte, 16)

	tests := []struct {
		name    string
		req     *Request
		wantErr bool
	}{
		{"nil request", nil, true},
		{"get ok", &Request{Kind: KindGet, Key: []byte("a"), Buffer: buf}, false},
		{"get without buffer", &Request{Kind: KindGet, Key: []byte("a")}, true},
		{"get empty key", &Request{Kind: KindGet, Buffer: buf}, true},
		{"get long key", &Request{Kind: KindGet, Key: longKey, Buffer: buf}, true},
		{"put ok", &Request{Kind: KindPut, Key: []byte("a"), Value: []byte("v")}, false},
		{"put empty value", &Request{Kind: KindPut, Key: []byte("a")}, false},
		{"remove ok", &Request{Kind: KindRemove, Key: []byte("a")}, false},
		{"iter start unbounded", &Request{Kind: KindIterStart}, false},
		{"iter start long end", &Request{Kind: KindIterStart, EndKey: longKey}, true},
		{"iter next ok", &Request{Kind: KindIterNext, Token: 1, Buffer: buf}, false},
		{"iter next no token", &Request{Kind: KindIterNext, Buffer: buf}, true},
		{"iter next no buffer", &Request{Kind: KindIterNext, Token: 1}, true},
		{"iter finish ok", &Request{Kind: KindIterFinish, Token: 1}, false},
		{"iter finish no token", &Request{Kind: KindIterFinish}, true},
		{"unknown kind", &Request{Kind: Kind(99)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Validate() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if KindIterNext.String() != "iter_next" {
		t.Errorf("String() = %q", KindIterNext.String())
	}
	if !strings.HasPrefix(Kind(200).String(), "kind(") {
		t.Errorf("String() = %q", Kind(200).String())
	}
}
