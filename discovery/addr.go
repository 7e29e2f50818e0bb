package discovery

import (
	"net"
	"strings"
)

// NormalizeHostPort strips a scheme prefix and appends a default port if
// the address doesn't already carry one. Adapted from the teacher's
// pkg/node NormalizeHostPort, used here to canonicalize a bare address a
// process advertises about itself; addresses read out of etcd are used
// as registered.
func NormalizeHostPort(addr, defaultPort string) string {
	if rest, ok := strings.CutPrefix(addr, "http://"); ok {
		addr = rest
	} else if rest, ok := strings.CutPrefix(addr, "https://"); ok {
		addr = rest
	}

	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return addr + ":" + defaultPort
}
