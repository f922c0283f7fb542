package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/hasirciogluhq/tcp-hammer/cmd/hammer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		port    int
		want    string
		wantErr bool
	}{
		{name: "hostname", host: "localhost", port: 7000, want: "localhost:7000"},
		{name: "ipv4", host: "10.0.0.1", port: 80, want: "10.0.0.1:80"},
		{name: "ipv6", host: "::1", port: 7000, want: "[::1]:7000"},
		{name: "empty host", host: "", port: 7000, wantErr: true},
		{name: "port zero", host: "localhost", port: 0, wantErr: true},
		{name: "port too large", host: "localhost", port: 70000, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolver(tt.host, tt.port)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			addr, err := r.Resolve(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr)
		})
	}
}

func TestResolverEmptyHostIsNotFound(t *testing.T) {
	_, err := NewResolver("", 7000)
	assert.True(t, errors.Is(err, core.ErrTargetNotFound))
}

func TestInsecureTLSProvider(t *testing.T) {
	cfg, err := NewInsecureTLSProvider("echo.local").ClientConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "echo.local", cfg.ServerName)
}
