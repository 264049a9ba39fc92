package krx

import "errors"

// Configuration load errors. All of them are non-fatal to a running
// engine: a failed load leaves the previously active configuration
// untouched.
var (
	// ErrBadMagic means the blob does not start with the KRX1 magic.
	ErrBadMagic = errors.New("krx: bad magic")
	// ErrUnsupportedVersion means the blob's format version is not one
	// this engine understands.
	ErrUnsupportedVersion = errors.New("krx: unsupported format version")
	// ErrIntegrity means the payload digest does not match the header.
	ErrIntegrity = errors.New("krx: content digest mismatch")
	// ErrMalformed means the payload failed structural validation.
	ErrMalformed = errors.New("krx: malformed payload")
)
