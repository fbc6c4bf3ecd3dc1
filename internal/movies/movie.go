// Package movies implements movie ingestion: validating uploaded or
// torrent-acquired sources, storing the original, and fanning out
// transcodes of derived resolutions to the task scheduler.
package movies

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

type MovieStatus string

const (
	MovieProcessing MovieStatus = "processing"
	MovieReady      MovieStatus = "ready"
	MovieError      MovieStatus = "error"
)

type VersionStatus string

const (
	VersionWaiting    VersionStatus = "waiting"
	VersionProcessing VersionStatus = "processing"
	VersionReady      VersionStatus = "ready"
	VersionError      VersionStatus = "error"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
)

// Movie is one logical piece of content.
type Movie struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	Description     *string     `json:"description,omitempty"`
	ReleaseYear     *int        `json:"releaseYear,omitempty"`
	PosterURL       *string     `json:"posterUrl,omitempty"`
	BannerURL       *string     `json:"bannerUrl,omitempty"`
	Status          MovieStatus `json:"status"`
	UserID          *uuid.UUID  `json:"userId,omitempty"`
	DurationSeconds *int        `json:"duration,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	Versions        []*Version  `json:"versions,omitempty"`
}

// Version is one rendition of a movie at a specific resolution.
type Version struct {
	ID         uuid.UUID     `json:"id"`
	MovieID    uuid.UUID     `json:"movieId"`
	Width      *int          `json:"width,omitempty"`
	Height     int           `json:"height"`
	IsOriginal bool          `json:"isOriginal"`
	Status     VersionStatus `json:"status"`
	StorageKey string        `json:"storageKey"`
	FileSize   int64         `json:"fileSize"`
	MimeType   string        `json:"mimeType"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Notification is a user-facing record of something that happened to a movie.
type Notification struct {
	ID             uuid.UUID        `json:"id"`
	UserID         *uuid.UUID       `json:"userId,omitempty"`
	MovieID        *uuid.UUID       `json:"movieId,omitempty"`
	MovieVersionID *uuid.UUID       `json:"movieVerId,omitempty"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	IsRead         bool             `json:"isRead"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// Metadata describes a movie as submitted by a user.
type Metadata struct {
	Title       string     `validate:"required,max=255"`
	Description string     `validate:"max=5000"`
	ReleaseYear int        `validate:"omitempty,gte=1888,lte=2200"`
	PosterURL   string     `validate:"omitempty,url"`
	BannerURL   string     `validate:"omitempty,url"`
	UserID      *uuid.UUID `validate:"-"`
}

var validate = validator.New()

// Normalize trims surrounding whitespace and converts text fields to NFC.
func (m Metadata) Normalize() Metadata {
	clean := func(s string) string {
		return norm.NFC.String(strings.TrimSpace(s))
	}
	m.Title = clean(m.Title)
	m.Description = clean(m.Description)
	m.PosterURL = strings.TrimSpace(m.PosterURL)
	m.BannerURL = strings.TrimSpace(m.BannerURL)
	return m
}

// Validate checks field constraints and returns a 400 AppError on failure.
func (m Metadata) Validate() error {
	if err := validate.Struct(m); err != nil {
		return &AppError{Message: "Invalid movie metadata", StatusCode: 400, Err: err}
	}
	return nil
}

func (m Metadata) newMovie() *Movie {
	mv := &Movie{
		ID:     uuid.New(),
		Title:  m.Title,
		Status: MovieProcessing,
		UserID: m.UserID,
	}
	if m.Description != "" {
		mv.Description = &m.Description
	}
	if m.ReleaseYear != 0 {
		mv.ReleaseYear = &m.ReleaseYear
	}
	if m.PosterURL != "" {
		mv.PosterURL = &m.PosterURL
	}
	if m.BannerURL != "" {
		mv.BannerURL = &m.BannerURL
	}
	return mv
}

// UploadRequest is a direct upload handed over by the HTTP entry point.
type UploadRequest struct {
	Metadata     Metadata
	TempPath     string
	OriginalName string
	FileSize     int64
}

// IngestRequest is the input of the ingestion workflow for an existing movie.
type IngestRequest struct {
	MovieID      uuid.UUID
	TempPath     string
	OriginalName string
	FileSize     int64
}

// TorrentRequest is the input of the torrent acquisition workflow.
type TorrentRequest struct {
	MovieID        uuid.UUID
	DescriptorPath string
}

// Source names the entry point a workflow started from.
type Source string

const (
	SourceUpload  Source = "upload"
	SourceTorrent Source = "torrent"
)
