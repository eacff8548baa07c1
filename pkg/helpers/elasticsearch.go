package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewESClient builds the client backing the todo search index. Basic
// auth is optional; empty credentials mean an unauthenticated cluster.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		ResponseHeaderTimeout: 5 * time.Second,
		MaxIdleConnsPerHost:   10,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: transport,
	})
}
