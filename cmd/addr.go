package cmd

import (
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// parseServeAddr resolves the listen address for the serve command from
// its arguments, falling back to defaultAddr. Both invocation forms are
// accepted:
//
//	supportbot serve :8787
//	supportbot serve --addr :8787
func parseServeAddr(args []string, defaultAddr string) (string, error) {
	addr := defaultAddr

	// A leading positional argument wins over the flag default.
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		addr = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&addr, "addr", addr, "listen address (host:port)")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("parsing serve flags: %w", err)
	}

	if err := validateAddr(addr); err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return addr, nil
}

// validateAddr checks that addr is a usable host:port listen address.
// An empty host means all interfaces; port 0 asks the kernel for a free
// port.
func validateAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("want host:port: %w", err)
	}

	if port == "" {
		return fmt.Errorf("missing port")
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port %q is not a number", port)
	}
	if n < 0 || n > 65535 {
		return fmt.Errorf("port %d out of range", n)
	}

	// Hostnames are resolved at bind time; here we only reject values
	// that cannot possibly name a host.
	if host != "" && net.ParseIP(host) == nil && strings.ContainsAny(host, " \t\r\n") {
		return fmt.Errorf("host %q contains whitespace", host)
	}

	return nil
}
