package domain

import (
	"strings"
	"time"
)

// VerificationStatus is the review state of an uploaded document.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusApproved VerificationStatus = "approved"
	StatusRejected VerificationStatus = "rejected"
)

// DocumentTypeTranscript is the only type uploaded during registration.
const DocumentTypeTranscript = "transcript"

// Document is an uploaded file as listed by GET /documents/list.
type Document struct {
	ID                         ID                 `json:"id"`
	DocumentType               string             `json:"document_type"`
	FileName                   string             `json:"file_name"`
	UploadedAt                 time.Time          `json:"uploaded_at"`
	VerificationStatus         VerificationStatus `json:"verification_status"`
	VerificationNotes          string             `json:"verification_notes,omitempty"`
	FriendlyVerificationStatus string             `json:"friendly_verification_status,omitempty"`
}

// TypeLabel returns a human label for the document type.
func (d Document) TypeLabel() string {
	if d.DocumentType == DocumentTypeTranscript {
		return "Academic Transcript"
	}
	if d.DocumentType == "" {
		return ""
	}
	return strings.ToUpper(d.DocumentType[:1]) + d.DocumentType[1:]
}

// StatusLabel prefers the server's friendly status over the raw one.
func (d Document) StatusLabel() string {
	if d.FriendlyVerificationStatus != "" {
		return d.FriendlyVerificationStatus
	}
	return string(d.VerificationStatus)
}

// Status normalises unknown values to pending.
func (d Document) Status() VerificationStatus {
	switch d.VerificationStatus {
	case StatusApproved, StatusRejected:
		return d.VerificationStatus
	default:
		return StatusPending
	}
}

// UploadedDocument is the body returned by POST /documents/upload-registration.
type UploadedDocument struct {
	ID           ID        `json:"id"`
	DocumentType string    `json:"document_type"`
	FileName     string    `json:"file_name"`
	Message      string    `json:"message,omitempty"`
}
