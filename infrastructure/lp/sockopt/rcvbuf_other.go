//go:build !unix

package sockopt

import "net"

// TuneReceiveBuffer falls back to the portable net package's SetReadBuffer
// on non-Unix platforms, where SO_RCVBUF is not available through
// golang.org/x/sys/unix.
func TuneReceiveBuffer(conn *net.UDPConn, bytes int) error {
	return conn.SetReadBuffer(bytes)
}
