package directadmin

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuota(t *testing.T) {
	tests := []struct {
		in        string
		unlimited bool
		value     float64
	}{
		{"", true, 0},
		{"unlimited", true, 0},
		{"UNLIMITED", true, 0},
		{" unlimited ", true, 0},
		{"0", false, 0},
		{"500", false, 500},
		{"12.5", false, 12.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := ParseQuota(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.unlimited, q.IsUnlimited())
			v, limited := q.Value()
			assert.Equal(t, !tt.unlimited, limited)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestParseQuota_Invalid(t *testing.T) {
	_, err := ParseQuota("plenty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plenty")
}

func TestQuota_String(t *testing.T) {
	assert.Equal(t, "unlimited", Unlimited().String())
	assert.Equal(t, "unlimited", Quota{}.String())
	assert.Equal(t, "0", Limited(0).String())
	assert.Equal(t, "1024", Limited(1024).String())
	assert.Equal(t, "2.5", Limited(2.5).String())
}

func TestQuota_RoundTrip(t *testing.T) {
	for _, in := range []string{"unlimited", "0", "750"} {
		q, err := ParseQuota(in)
		require.NoError(t, err)
		assert.Equal(t, in, q.String())
	}
}

func TestSetQuota(t *testing.T) {
	v := url.Values{}
	setQuota(v, "bandwidth", Unlimited())
	setQuota(v, "quota", Limited(0))

	assert.Equal(t, url.Values{
		"ubandwidth": {"unlimited"},
		"quota":      {"0"},
	}, v)
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"yes", "ON", "1", "true", " Yes "} {
		assert.True(t, parseFlag(s), s)
	}
	for _, s := range []string{"", "no", "OFF", "0", "maybe"} {
		assert.False(t, parseFlag(s), s)
	}
	assert.Equal(t, "ON", flagValue(true))
	assert.Equal(t, "OFF", flagValue(false))
}
