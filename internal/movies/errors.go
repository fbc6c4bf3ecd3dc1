package movies

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"thirdcoast.systems/duckflix/pkg/torrent"
)

// AppError is an error with a user-readable message and an HTTP status.
type AppError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error       { return e.Err }
func (e *AppError) Status() int         { return e.StatusCode }
func (e *AppError) UserMessage() string { return e.Message }

// InvalidSourceError means the submitted media cannot be ingested. The
// source file has already been deleted.
type InvalidSourceError struct {
	Reason string
	Err    error
}

func (e *InvalidSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid source: %s: %v", e.Reason, e.Err)
	}
	return "invalid source: " + e.Reason
}

func (e *InvalidSourceError) Unwrap() error       { return e.Err }
func (e *InvalidSourceError) Status() int         { return http.StatusBadRequest }
func (e *InvalidSourceError) UserMessage() string { return "Invalid video file: " + e.Reason + "." }

// SaveError means a storage or database step failed after the source was
// moved into permanent storage. The moved file has been removed.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string       { return fmt.Sprintf("save original: %v", e.Err) }
func (e *SaveError) Unwrap() error       { return e.Err }
func (e *SaveError) Status() int         { return http.StatusInternalServerError }
func (e *SaveError) UserMessage() string { return "The video could not be saved. Please try again." }

// TorrentFailureKind classifies a failed swarm download.
type TorrentFailureKind string

const (
	TorrentNoSeeders TorrentFailureKind = "no_seeders"
	TorrentDiskFull  TorrentFailureKind = "disk_full"
	TorrentGeneric   TorrentFailureKind = "generic"
	TorrentDuplicate TorrentFailureKind = "duplicate"
)

// TorrentDownloadError is returned when the swarm download fails. The
// session directory has been removed.
type TorrentDownloadError struct {
	Kind TorrentFailureKind
	Err  error
}

func newTorrentDownloadError(err error) *TorrentDownloadError {
	return &TorrentDownloadError{Kind: classifyTorrentFailure(err), Err: err}
}

func classifyTorrentFailure(err error) TorrentFailureKind {
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, torrent.ErrNoPeers), strings.Contains(msg, "no peers"):
		return TorrentNoSeeders
	case errors.Is(err, torrent.ErrAlreadyDownloading):
		return TorrentDuplicate
	case errors.Is(err, syscall.ENOSPC), strings.Contains(msg, "no space left"):
		return TorrentDiskFull
	default:
		return TorrentGeneric
	}
}

func (e *TorrentDownloadError) Error() string {
	return fmt.Sprintf("torrent download failed (%s): %v", e.Kind, e.Err)
}

func (e *TorrentDownloadError) Unwrap() error { return e.Err }

func (e *TorrentDownloadError) Status() int {
	switch e.Kind {
	case TorrentNoSeeders:
		return http.StatusBadRequest
	case TorrentDiskFull:
		return http.StatusInsufficientStorage
	case TorrentDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (e *TorrentDownloadError) UserMessage() string {
	switch e.Kind {
	case TorrentNoSeeders:
		return "The torrent has no seeders. Try a different torrent."
	case TorrentDiskFull:
		return "The server ran out of disk space while downloading the torrent."
	case TorrentDuplicate:
		return "This torrent is already being downloaded."
	default:
		return "The torrent download failed."
	}
}

// MovieNotFoundError is returned for an unknown movie id.
type MovieNotFoundError struct {
	ID uuid.UUID
}

func (e *MovieNotFoundError) Error() string       { return fmt.Sprintf("movie %s not found", e.ID) }
func (e *MovieNotFoundError) Status() int         { return http.StatusNotFound }
func (e *MovieNotFoundError) UserMessage() string { return "Movie not found." }

// StatusCode maps an error to the HTTP status the entry point should answer with.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var sc interface{ Status() int }
	if errors.As(err, &sc) {
		return sc.Status()
	}
	return http.StatusInternalServerError
}

// UserMessage returns the user-readable text for err.
func UserMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return "Something went wrong while processing the video."
}
