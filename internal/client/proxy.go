// ABOUTME: SSH+SOCKS5 dialer for reaching the API through a jump host
// ABOUTME: Parses ssh+socks5://user@host:port?private-key=/path URLs

package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	proxy "github.com/cloudfoundry/socks5-proxy"
)

// createSOCKS5DialContextFunc creates a dial function for SSH+SOCKS5 proxy connections.
// Supports format: ssh+socks5://user@host:port?private-key=/path/to/key
// The SSH connection is opened lazily on first dial.
func createSOCKS5DialContextFunc(allProxy string, logger *slog.Logger) (func(ctx context.Context, network, address string) (net.Conn, error), error) {
	allProxy = strings.TrimPrefix(allProxy, "ssh+")

	proxyURL, err := url.Parse(allProxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	if proxyURL.Scheme != "socks5" || proxyURL.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q: expected ssh+socks5://user@host:port", allProxy)
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	proxySSHKeyPath := proxyURL.Query().Get("private-key")
	if proxySSHKeyPath == "" {
		return nil, fmt.Errorf("proxy URL missing required 'private-key' query param")
	}

	proxySSHKey, err := os.ReadFile(proxySSHKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH private key %s: %w", proxySSHKeyPath, err)
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), slog.NewLogLogger(logger.Handler(), slog.LevelDebug), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	dial := func(network, address string) (net.Conn, error) {
		mut.RLock()
		haveDialer := dialer != nil
		mut.RUnlock()

		if haveDialer {
			return dialer(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			logger.Debug("Opening SSH tunnel", "proxy", proxyURL.Host, "user", username)
			proxyDialer, err := socks5Proxy.Dialer(username, string(proxySSHKey), proxyURL.Host)
			if err != nil {
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		return dialer(network, address)
	}

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		return dialContext(ctx, func() (net.Conn, error) {
			return dial(network, address)
		})
	}, nil
}

// dialContext runs dial so that ctx can abandon it. The proxy dialer takes no
// context, so a connection that arrives after ctx is done is closed.
func dialContext(ctx context.Context, dial func() (net.Conn, error)) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := dial()
		done <- result{conn: conn, err: err}
	}()

	select {
	case r := <-done:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
