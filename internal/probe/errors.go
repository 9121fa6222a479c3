package probe

// Error is a failure synthesized by the walker itself rather than returned by
// the network stack.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	// ErrDNSLookupTimeout is returned when name resolution outlives the
	// resolver ceiling.
	ErrDNSLookupTimeout = &Error{Message: "DNS lookup timeout"}

	// ErrSocketTimeout is injected when the request-level timer fires before
	// the response body is complete.
	ErrSocketTimeout = &Error{Code: CodeConnTimeout, Message: "Socket timeout"}
)

// Error codes reported in ErrorDetail.Code.
const (
	CodeNotFound = "ENOTFOUND"

	CodeCertAltName       = "ERR_TLS_CERT_ALTNAME_INVALID"
	CodeCertExpired       = "CERT_HAS_EXPIRED"
	CodeSelfSignedLeaf    = "DEPTH_ZERO_SELF_SIGNED_CERT"
	CodeSelfSignedInChain = "SELF_SIGNED_CERT_IN_CHAIN"
	CodeUnknownIssuer     = "UNABLE_TO_GET_ISSUER_CERT_LOCALLY"

	CodeConnReset   = "ECONNRESET"
	CodeConnRefused = "ECONNREFUSED"
	CodeConnTimeout = "ECONNTIMEOUT"
)
