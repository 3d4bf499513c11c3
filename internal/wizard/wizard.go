// Package wizard implements the three-step student registration flow:
// account credentials, personal information and transcript upload.
//
// The accumulated form state lives in a Draft owned by the caller. Nothing is
// persisted; dropping the Draft abandons the registration. Each step checks
// its predecessor state on entry and returns ErrNoDraft when it is missing,
// which callers treat as "go back to step one".
package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/aada-edu/aada/pkg/client"
	"github.com/aada-edu/aada/pkg/domain"
)

// ErrNoDraft means a step was entered without the state of its predecessor.
var ErrNoDraft = errors.New("registration draft missing")

// Messages shown to the user on completion.
const (
	MsgRegistered   = "Registration successful! Your document has been uploaded. Please login with your credentials."
	MsgUploadFailed = "Document upload failed"
)

// ValidationError is a client-side form error. It never involves the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Account is the step one form.
type Account struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// PersonalInfo is the step two form.
type PersonalInfo struct {
	FirstName             string
	LastName              string
	Phone                 string
	AddressLine1          string
	AddressLine2          string
	City                  string
	State                 string
	ZipCode               string
	EmergencyContactName  string
	EmergencyContactPhone string
}

// Draft is the registration state carried from step to step.
type Draft struct {
	Email    string
	Password string
	Personal *PersonalInfo
}

// SubmitAccount validates step one and starts a Draft.
func SubmitAccount(a Account) (*Draft, error) {
	if strings.TrimSpace(a.Email) == "" {
		return nil, invalid("email", "Please enter your email")
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return nil, invalid("email", "Please enter a valid email address")
	}
	if a.Password != a.ConfirmPassword {
		return nil, invalid("confirm_password", "Passwords do not match")
	}
	for _, c := range PasswordChecks(a.Password) {
		if !c.OK {
			return nil, invalid("password", c.Message)
		}
	}
	return &Draft{Email: a.Email, Password: a.Password}, nil
}

// EnterPersonalInfo is the step two guard.
func EnterPersonalInfo(d *Draft) error {
	if d == nil || d.Email == "" || d.Password == "" {
		return ErrNoDraft
	}
	return nil
}

// SubmitPersonalInfo validates step two and returns a Draft extended with p.
// The input Draft is not modified.
func SubmitPersonalInfo(d *Draft, p PersonalInfo) (*Draft, error) {
	if err := EnterPersonalInfo(d); err != nil {
		return nil, err
	}
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }
	switch {
	case blank(p.FirstName):
		return nil, invalid("first_name", "Please enter your first name")
	case blank(p.LastName):
		return nil, invalid("last_name", "Please enter your last name")
	case blank(p.Phone):
		return nil, invalid("phone", "Please enter your phone number")
	case !ValidPhone(p.Phone):
		return nil, invalid("phone", "Please enter a valid phone number")
	case blank(p.AddressLine1):
		return nil, invalid("address_line1", "Please enter your address")
	case blank(p.City):
		return nil, invalid("city", "Please enter your city")
	case p.State == "" || !ValidState(p.State):
		return nil, invalid("state", "Please select your state")
	case blank(p.ZipCode):
		return nil, invalid("zip_code", "Please enter your ZIP code")
	case !ValidZip(p.ZipCode):
		return nil, invalid("zip_code", "Please enter a valid ZIP code")
	case blank(p.EmergencyContactName):
		return nil, invalid("emergency_contact_name", "Please enter emergency contact name")
	case blank(p.EmergencyContactPhone):
		return nil, invalid("emergency_contact_phone", "Please enter emergency contact phone")
	case !ValidPhone(p.EmergencyContactPhone):
		return nil, invalid("emergency_contact_phone", "Please enter a valid emergency contact phone number")
	}
	next := *d
	next.Personal = &p
	return &next, nil
}

// EnterDocumentUpload is the step three guard. Only the email is required.
func EnterDocumentUpload(d *Draft) error {
	if d == nil || d.Email == "" {
		return ErrNoDraft
	}
	return nil
}

// Registrar creates the account and attaches the transcript.
// *auth.Service satisfies it.
type Registrar interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	UploadRegistrationDocument(ctx context.Context, up client.UploadRequest) (*domain.UploadedDocument, error)
}

// PartialRegistrationError reports an account that was created but whose
// transcript upload failed. The account is not rolled back.
type PartialRegistrationError struct {
	UserID domain.ID
	Err    error
}

func (e *PartialRegistrationError) Error() string {
	var httpErr *client.HTTPError
	if e.Err == nil || (errors.As(e.Err, &httpErr) && httpErr.Detail == "") {
		return MsgUploadFailed
	}
	return e.Err.Error()
}

func (e *PartialRegistrationError) Unwrap() error { return e.Err }

// Complete runs step three: it registers the student and uploads the
// transcript against the new account.
func Complete(ctx context.Context, r Registrar, d *Draft, f *File, agreedToTerms bool) (*domain.UploadedDocument, error) {
	if err := EnterDocumentUpload(d); err != nil {
		return nil, err
	}
	if !agreedToTerms {
		return nil, invalid("terms", "Please agree to the terms and conditions")
	}
	if f == nil {
		return nil, invalid("file", "Please upload your academic transcript")
	}
	if err := SelectFile(*f); err != nil {
		return nil, err
	}

	req := domain.RegisterRequest{
		Email:    d.Email,
		Password: d.Password,
		Role:     domain.RoleStudent,
	}
	if p := d.Personal; p != nil {
		req.FirstName = p.FirstName
		req.LastName = p.LastName
		req.Phone = p.Phone
	}
	user, err := r.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	content, err := f.Open()
	if err != nil {
		return nil, &PartialRegistrationError{UserID: user.ID, Err: fmt.Errorf("open %s: %w", f.Name, err)}
	}
	defer content.Close() //nolint:errcheck

	doc, err := r.UploadRegistrationDocument(ctx, client.UploadRequest{
		UserID:       user.ID,
		DocumentType: domain.DocumentTypeTranscript,
		FileName:     f.Name,
		ContentType:  f.ContentType,
		Content:      content,
	})
	if err != nil {
		return nil, &PartialRegistrationError{UserID: user.ID, Err: err}
	}
	return doc, nil
}
