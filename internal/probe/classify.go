package probe

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
)

// CodeDNSAgain is reported for resolution failures other than "not found".
const CodeDNSAgain = "EAI_AGAIN"

var tlsCodes = map[string]struct{}{
	CodeCertAltName:       {},
	CodeCertExpired:       {},
	CodeSelfSignedLeaf:    {},
	CodeSelfSignedInChain: {},
	CodeUnknownIssuer:     {},
}

var socketCodes = map[string]struct{}{
	CodeConnReset:   {},
	CodeConnRefused: {},
	CodeConnTimeout: {},
}

var errnoCodes = []struct {
	errno syscall.Errno
	code  string
}{
	{syscall.ECONNRESET, CodeConnReset},
	{syscall.ECONNREFUSED, CodeConnRefused},
	{syscall.ECONNABORTED, "ECONNABORTED"},
	{syscall.ETIMEDOUT, "ETIMEDOUT"},
	{syscall.EHOSTUNREACH, "EHOSTUNREACH"},
	{syscall.ENETUNREACH, "ENETUNREACH"},
	{syscall.EPIPE, "EPIPE"},
}

// Classify maps a walk error to its cause. Order matters: resolution
// failures win over TLS codes, which win over socket codes. Anything left is
// CauseUnknown.
func Classify(err error) Cause {
	if err == nil {
		return CauseUnknown
	}
	if isResolutionFailure(err) {
		return CauseDNS
	}
	return CauseForCode(ErrorCode(err))
}

// CauseForCode buckets a bare error code. Resolution codes are not handled
// here because they are recognised from the error itself.
func CauseForCode(code string) Cause {
	if _, ok := tlsCodes[code]; ok {
		return CauseTLS
	}
	if _, ok := socketCodes[code]; ok {
		return CauseAbort
	}
	return CauseUnknown
}

func isResolutionFailure(err error) bool {
	if errors.Is(err, ErrDNSLookupTimeout) {
		return true
	}
	var de *net.DNSError
	return errors.As(err, &de)
}

// Describe reduces err to the diagnostic fields of a Failure.
func Describe(err error) ErrorDetail {
	return ErrorDetail{
		Type:    ErrorType(err),
		Code:    ErrorCode(err),
		Message: unwrapURLError(err).Error(),
	}
}

// ErrorType names the concrete type of err, ignoring *url.Error wrappers.
func ErrorType(err error) string {
	return fmt.Sprintf("%T", unwrapURLError(err))
}

// ErrorCode extracts a machine-readable code, or "" if none applies.
func ErrorCode(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}

	var de *net.DNSError
	if errors.As(err, &de) {
		if de.IsNotFound {
			return CodeNotFound
		}
		return CodeDNSAgain
	}

	if code := certCode(err); code != "" {
		return code
	}

	for _, e := range errnoCodes {
		if errors.Is(err, e.errno) {
			return e.code
		}
	}
	// The peer hung up before a complete response.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return CodeConnReset
	}
	return ""
}

func certCode(err error) string {
	var he x509.HostnameError
	if errors.As(err, &he) {
		return CodeCertAltName
	}
	var ie x509.CertificateInvalidError
	if errors.As(err, &ie) && ie.Reason == x509.Expired {
		return CodeCertExpired
	}
	var ua x509.UnknownAuthorityError
	var sre x509.SystemRootsError
	if !errors.As(err, &ua) && !errors.As(err, &sre) {
		return ""
	}

	var chain []*x509.Certificate
	var ve *tls.CertificateVerificationError
	if errors.As(err, &ve) {
		chain = ve.UnverifiedCertificates
	}
	if len(chain) == 0 && ua.Cert != nil {
		chain = []*x509.Certificate{ua.Cert}
	}
	switch {
	case len(chain) == 1 && selfSigned(chain[0]):
		return CodeSelfSignedLeaf
	case len(chain) > 1 && selfSigned(chain[len(chain)-1]):
		return CodeSelfSignedInChain
	default:
		return CodeUnknownIssuer
	}
}

func selfSigned(c *x509.Certificate) bool {
	if c == nil || !bytes.Equal(c.RawIssuer, c.RawSubject) {
		return false
	}
	return c.CheckSignature(c.SignatureAlgorithm, c.RawTBSCertificate, c.Signature) == nil
}

func unwrapURLError(err error) error {
	var ue *url.Error
	for errors.As(err, &ue) && ue.Err != nil {
		err = ue.Err
	}
	return err
}
