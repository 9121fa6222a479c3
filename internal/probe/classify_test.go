package probe

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
}

func newCert(t *testing.T, cn string, isCA bool, parent *testCA) *testCA {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		DNSNames:              []string{cn},
		IsCA:                  isCA,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	signer, signerKey := tmpl, key
	if parent != nil {
		signer, signerKey = parent.cert, parent.key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, signer, &key.PublicKey, signerKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &testCA{cert: cert, key: key}
}

func verifyErr(chain []*x509.Certificate, err error) error {
	return &url.Error{Op: "Get", URL: "https://x", Err: &tls.CertificateVerificationError{
		UnverifiedCertificates: chain,
		Err:                    err,
	}}
}

func TestClassify_Table(t *testing.T) {
	self := newCert(t, "self.example", true, nil)
	root := newCert(t, "root.example", true, nil)
	leaf := newCert(t, "leaf.example", false, root)
	orphan := newCert(t, "orphan.example", false, newCert(t, "missing.example", true, nil))

	refused := &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}
	reset := &net.OpError{Op: "read", Net: "tcp", Err: &os.SyscallError{Syscall: "read", Err: syscall.ECONNRESET}}

	cases := []struct {
		name  string
		err   error
		cause Cause
		code  string
	}{
		{"dns not found", &net.DNSError{Err: "no such host", Name: "x.invalid", IsNotFound: true}, CauseDNS, CodeNotFound},
		{"dns wrapped in dial", &net.OpError{Op: "dial", Err: &net.DNSError{Err: "server misbehaving", Name: "x"}}, CauseDNS, CodeDNSAgain},
		{"dns ceiling", ErrDNSLookupTimeout, CauseDNS, ""},
		{"dns ceiling wrapped", fmt.Errorf("dial: %w", ErrDNSLookupTimeout), CauseDNS, ""},
		{"altname", verifyErr([]*x509.Certificate{self.cert}, x509.HostnameError{Certificate: self.cert, Host: "other.example"}), CauseTLS, CodeCertAltName},
		{"expired", verifyErr([]*x509.Certificate{self.cert}, x509.CertificateInvalidError{Cert: self.cert, Reason: x509.Expired}), CauseTLS, CodeCertExpired},
		{"self-signed leaf", verifyErr([]*x509.Certificate{self.cert}, x509.UnknownAuthorityError{Cert: self.cert}), CauseTLS, CodeSelfSignedLeaf},
		{"self-signed leaf no chain", x509.UnknownAuthorityError{Cert: self.cert}, CauseTLS, CodeSelfSignedLeaf},
		{"self-signed in chain", verifyErr([]*x509.Certificate{leaf.cert, root.cert}, x509.UnknownAuthorityError{Cert: root.cert}), CauseTLS, CodeSelfSignedInChain},
		{"unknown issuer", verifyErr([]*x509.Certificate{orphan.cert}, x509.UnknownAuthorityError{Cert: orphan.cert}), CauseTLS, CodeUnknownIssuer},
		{"refused", refused, CauseAbort, CodeConnRefused},
		{"reset", reset, CauseAbort, CodeConnReset},
		{"peer eof", fmt.Errorf("read response: %w", io.ErrUnexpectedEOF), CauseAbort, CodeConnReset},
		{"socket timeout", ErrSocketTimeout, CauseAbort, CodeConnTimeout},
		{"unreachable is unclassified", &net.OpError{Op: "dial", Err: &os.SyscallError{Syscall: "connect", Err: syscall.EHOSTUNREACH}}, CauseUnknown, "EHOSTUNREACH"},
		{"plain", errors.New("boom"), CauseUnknown, ""},
		{"other cert failure", verifyErr([]*x509.Certificate{self.cert}, x509.CertificateInvalidError{Cert: self.cert, Reason: x509.NotAuthorizedToSign}), CauseUnknown, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.cause, Classify(c.err))
			assert.Equal(t, c.code, ErrorCode(c.err))
		})
	}
}

func TestClassify_NilIsUnknown(t *testing.T) {
	assert.Equal(t, CauseUnknown, Classify(nil))
}

func TestClassify_IsPure(t *testing.T) {
	errs := []error{
		ErrSocketTimeout,
		ErrDNSLookupTimeout,
		&net.DNSError{IsNotFound: true},
		errors.New("mystery"),
	}
	for _, err := range errs {
		first := Classify(err)
		assert.Equal(t, first, Classify(err), "err=%v", err)
	}
}

func TestCauseForCode(t *testing.T) {
	assert.Equal(t, CauseTLS, CauseForCode(CodeCertExpired))
	assert.Equal(t, CauseAbort, CauseForCode(CodeConnReset))
	assert.Equal(t, CauseUnknown, CauseForCode("EWHATEVER"))
	assert.Equal(t, CauseUnknown, CauseForCode(""))
}

func TestDescribe_StripsURLError(t *testing.T) {
	err := &url.Error{Op: "Get", URL: "http://x", Err: ErrSocketTimeout}
	d := Describe(err)
	assert.Equal(t, "*probe.Error", d.Type)
	assert.Equal(t, CodeConnTimeout, d.Code)
	assert.Equal(t, "Socket timeout", d.Message)
}
