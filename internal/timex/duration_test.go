package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_JSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"3s","b":2000000000}`), &v))
	require.Equal(t, 3*time.Second, v.A.Duration)
	require.Equal(t, 2*time.Second, v.B.Duration)

	out, err := json.Marshal(Duration{Duration: 1500 * time.Millisecond})
	require.NoError(t, err)
	require.JSONEq(t, `"1.5s"`, string(out))
}

func TestDuration_YAML(t *testing.T) {
	var v struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 1m\nb: 5\n"), &v))
	require.Equal(t, time.Minute, v.A.Duration)
	require.Equal(t, time.Duration(5), v.B.Duration)
}

func TestDuration_Invalid(t *testing.T) {
	var d Duration
	require.ErrorIs(t, json.Unmarshal([]byte(`"soon"`), &d), errBadDuration)
	require.ErrorIs(t, json.Unmarshal([]byte(`true`), &d), errBadDuration)
}
