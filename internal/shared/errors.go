package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Provider errors. ErrProviderRequest covers transport failures and
	// timeouts; callers degrade the affected chunk instead of failing a batch.
	ErrProviderRequest     = fmt.Errorf("provider request failed")
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")
	ErrTrackNotFound       = fmt.Errorf("track not found")

	// Store errors. Read failures degrade to empty results; write failures
	// always propagate.
	ErrStoreRead  = fmt.Errorf("store read failed")
	ErrStoreWrite = fmt.Errorf("store write failed")

	// Linkage errors
	ErrInvalidLinkage  = fmt.Errorf("invalid linkage: all references are null")
	ErrLinkageNotFound = fmt.Errorf("linkage not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
