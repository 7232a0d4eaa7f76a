package subsystem

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// toJSONValue roundtrips v through encoding/json so intrinsics compare as
// plain maps.
func toJSONValue(t *testing.T, v any) any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
