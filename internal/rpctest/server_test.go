package rpctest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

// FuzzRequestUnmarshal tests that arbitrary JSON does not panic when parsed
// as a JSON-RPC 2.0 request.
func FuzzRequestUnmarshal(f *testing.F) {
	f.Add([]byte(`{"jsonrpc":"2.0","method":"iotax_getCoins","params":["0x1",null,null,null],"id":1}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"iota_getCheckpoint","params":["12"],"id":"test"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"method":"","params":{}}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		var target any
		_ = param(req.Params, 0, &target)
	})
}

func post(t *testing.T, url, body string) Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestServer_Dispatch(t *testing.T) {
	s := New()
	s.Handle("echo", func(params []json.RawMessage) (any, *Error) {
		var v string
		if err := param(params, 0, &v); err != nil {
			return nil, err
		}
		return v, nil
	})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })

	tests := []struct {
		name string
		body string
		code int
	}{
		{"ok", `{"jsonrpc":"2.0","method":"echo","params":["hi"],"id":1}`, 0},
		{"bad param", `{"jsonrpc":"2.0","method":"echo","params":[5],"id":1}`, CodeInvalidParams},
		{"unknown method", `{"jsonrpc":"2.0","method":"nope","params":[],"id":1}`, CodeMethodNotFound},
		{"wrong version", `{"jsonrpc":"1.0","method":"echo","params":[],"id":1}`, CodeInvalidRequest},
		{"invalid json", `{`, CodeParseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, s.URL(), tt.body)
			if tt.code == 0 {
				if resp.Error != nil || resp.Result != "hi" {
					t.Errorf("resp = %+v", resp)
				}
				return
			}
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %d", resp.Error, tt.code)
			}
		})
	}

	if got := len(s.Calls("echo")); got != 2 {
		t.Errorf("recorded echo calls = %d, want 2", got)
	}

	resp, err := http.Get(s.URL())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Error == nil || out.Error.Code != CodeInvalidRequest {
		t.Errorf("GET should be rejected: %+v (%v)", out.Error, err)
	}
}
