package memory

import (
	"context"
	"crypto/tls"
)

// InsecureTLSProvider accepts any server certificate. Meant for
// self-signed echo servers in development.
type InsecureTLSProvider struct {
	ServerName string
}

func NewInsecureTLSProvider(serverName string) *InsecureTLSProvider {
	return &InsecureTLSProvider{ServerName: serverName}
}

func (p *InsecureTLSProvider) ClientConfig(ctx context.Context) (*tls.Config, error) {
	return &tls.Config{
		ServerName:         p.ServerName,
		InsecureSkipVerify: true,
	}, nil
}
