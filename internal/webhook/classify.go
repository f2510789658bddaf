package webhook

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/bigcity/rewardstrategy/internal/leads"
)

// Classify names the transport failure behind err. The result is best effort:
// it only sees what the Go transport chose to wrap.
func Classify(err error) leads.NetworkKind {
	if err == nil {
		return leads.NetworkUnknown
	}
	if errors.Is(err, context.Canceled) {
		return leads.NetworkCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return leads.NetworkTimeout
	}
	if isTLSRejection(err) {
		return leads.NetworkRejected
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return leads.NetworkTimeout
		}
		return leads.NetworkConnectivity
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return leads.NetworkTimeout
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return leads.NetworkConnectivity
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return leads.NetworkConnectivity
	}
	return leads.NetworkUnknown
}

func isTLSRejection(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var alertErr tls.AlertError
	var authorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}
