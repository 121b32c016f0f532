package tunekit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptimizer(t *testing.T) {
	o, err := NewOptimizer("example.com/shop", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "example.com", o.OrgDomain)
	assert.Equal(t, "shop", o.AppName)
	assert.Equal(t, "s3cret", o.Token)
	assert.Equal(t, DefaultBaseURL, o.BaseURL)
	assert.Equal(t, "example.com/shop", o.ID())
}

func TestNewOptimizer_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		id      string
		token   string
		wantErr string
	}{
		{"missing separator", "example.com", "tok", "invalid optimizer ID"},
		{"bad domain", "not a domain/app", "tok", "invalid optimizer organization"},
		{"bare label domain", "localhost/app", "tok", "invalid optimizer organization"},
		{"app too short", "example.com/ab", "tok", "invalid optimizer application"},
		{"app uppercase", "example.com/Shop", "tok", "invalid optimizer application"},
		{"empty token", "example.com/shop", "", "token is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOptimizer(tc.id, tc.token)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestOptimizer_APIURL(t *testing.T) {
	o, err := NewOptimizer("example.com/shop", "tok")
	require.NoError(t, err)
	assert.Equal(t,
		"https://api.tunekit.io/accounts/example.com/applications/shop/",
		o.APIURL())
}

func TestOptimizer_WithBaseURL(t *testing.T) {
	o, err := NewOptimizer("example.com/shop", "tok",
		WithBaseURL("https://staging.tunekit.io"))
	require.NoError(t, err)
	assert.Equal(t,
		"https://staging.tunekit.io/accounts/example.com/applications/shop/",
		o.APIURL())
}

// TestOptimizer_String verifies the token never leaks through the
// stringer.
func TestOptimizer_String(t *testing.T) {
	o, err := NewOptimizer("example.com/shop", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", o.String())
	assert.NotContains(t, o.String(), "s3cret")
}
