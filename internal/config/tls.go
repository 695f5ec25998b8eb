package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLS builds a *tls.Config for reaching the panel from DA_CA_CERT and
// DA_INSECURE. Returns nil, nil if neither is set (system roots).
func (c *Config) TLS() (*tls.Config, error) {
	if c.CACert == "" && !c.Insecure {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.Insecure, //nolint:gosec
	}

	if c.CACert != "" {
		caPEM, err := os.ReadFile(c.CACert)
		if err != nil {
			return nil, fmt.Errorf("read panel CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("failed to parse panel CA cert")
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}
