//go:build unit || e2e

package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// Mutation edits a request body map before it is sent.
type Mutation func(m map[string]any)

// DtoMap turns v into its JSON object form and applies muts in order.
func DtoMap(t *testing.T, v any, muts ...Mutation) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, f := range muts {
		f(m)
	}
	return m
}

// Field sets key to value; a nil value removes the key.
func Field(key string, value any) Mutation {
	return func(m map[string]any) {
		if value == nil {
			delete(m, key)
			return
		}
		m[key] = value
	}
}

func DecodeJSON(b []byte, target any) error {
	return json.Unmarshal(b, target)
}
