package client

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// isTransientStatus reports whether a response status is worth retrying.
func isTransientStatus(code int) bool {
	return code >= 500 || code == 408 || code == 429
}

// isTransientError reports whether a transport error is worth retrying.
// Cancellation by the caller never is.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// isConnectionFailure reports whether err means the remote host could not be reached at all,
// as opposed to a request that reached it and failed midway.
func isConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "dial" || opErr.Op == "proxyconnect") {
		return true
	}
	return false
}
