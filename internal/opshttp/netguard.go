package opshttp

import (
	"net"
	"net/http"
	"net/netip"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/log"
)

// requireNonPublicNetwork rejects requests whose peer address is not
// loopback, RFC 1918 private, or link-local. The admin listener should
// only ever be reachable over the node network or an SSH tunnel; a
// public peer here means a deployment mistake.
func requireNonPublicNetwork(L log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			forbid(L, w, r, "unparseable remote addr")
			return
		}
		addr, err := netip.ParseAddr(host)
		if err != nil {
			forbid(L, w, r, "invalid remote ip")
			return
		}
		// IPv4-mapped IPv6 (::ffff:a.b.c.d) classifies as its IPv4 form
		addr = addr.Unmap()

		if !addr.IsLoopback() && !addr.IsPrivate() && !addr.IsLinkLocalUnicast() {
			forbid(L, w, r, "public remote ip")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func forbid(L log.Logger, w http.ResponseWriter, r *http.Request, reason string) {
	if L != nil {
		L.Warn(r.Context(), "admin request refused",
			"reason", reason,
			"url.path", r.URL.Path,
		)
	}
	http.Error(w, "forbidden", http.StatusForbidden)
}
