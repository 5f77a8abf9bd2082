package service

import (
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
)

// JSONCodec serializes plain Go request and response structs.
// It replaces connect's protojson codec under the same "json" name, so
// clients send Content-Type application/json.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// jsonCharsetCodec covers clients that send "application/json; charset=utf-8".
type jsonCharsetCodec struct{ JSONCodec }

func (jsonCharsetCodec) Name() string { return "json; charset=utf-8" }

// HandlerOptions returns the options every service handler is built with.
func HandlerOptions(interceptors ...connect.Interceptor) []connect.HandlerOption {
	return []connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithCodec(jsonCharsetCodec{}),
		connect.WithInterceptors(interceptors...),
	}
}

// serviceHandler routes a service's procedures by exact path, like generated
// connect handlers do. It returns the path prefix to mount it under.
func serviceHandler(service string, handlers map[string]http.Handler) (string, http.Handler) {
	return "/" + service + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
