package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseOptions разбирает key=value в плоские опции команды.
// Значение, валидное как JSON (7, true, "x", [1]), берётся как JSON, остальное строкой.
func parseOptions(args []string) (map[string]any, error) {
	opts := make(map[string]any, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("bad option %q, want key=value", a)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			opts[k] = decoded
		} else {
			opts[k] = v
		}
	}
	return opts, nil
}
