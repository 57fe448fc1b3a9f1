package ingest

import "errors"

var (
	// ErrURLProviderMismatch: the repository URL's host does not belong to
	// the declared provider. No Repository is created.
	ErrURLProviderMismatch = errors.New("repository URL does not match provider")

	// ErrAuthRequired: the remote rejected the clone for lack of (valid)
	// credentials. Not retried.
	ErrAuthRequired = errors.New("repository requires authentication")

	// ErrNotFound: no such repository for this account.
	ErrNotFound = errors.New("repository not found")
)
