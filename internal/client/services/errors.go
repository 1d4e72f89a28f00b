package services

import "errors"

var (
	// ErrRemoteWriteFailed is returned when an online write did not reach
	// the remote store. The local view has been restored.
	ErrRemoteWriteFailed = errors.New("remote write failed")

	// ErrCacheUnavailable is returned when an offline action could not be
	// recorded durably.
	ErrCacheUnavailable = errors.New("local cache unavailable")

	// ErrOffline is returned for actions that need the remote store.
	ErrOffline = errors.New("offline")

	// ErrNoCredential means no AI API key is configured or it was cleared.
	ErrNoCredential = errors.New("no api credential")

	// ErrNotSignedIn means no session token is stored.
	ErrNotSignedIn = errors.New("not signed in")
)
