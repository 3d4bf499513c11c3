package wizard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aada-edu/aada/pkg/client"
	"github.com/aada-edu/aada/pkg/domain"
)

func validPersonal() PersonalInfo {
	return PersonalInfo{
		FirstName:             "Ana",
		LastName:              "Diaz",
		Phone:                 "(555) 123-4567",
		AddressLine1:          "1 Main St",
		City:                  "Austin",
		State:                 "TX",
		ZipCode:               "78701",
		EmergencyContactName:  "Luis Diaz",
		EmergencyContactPhone: "(555) 765-4321",
	}
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Message
}

func TestSubmitAccount(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    string
	}{
		{"valid", Account{"a@b.com", "Abcdef12", "Abcdef12"}, ""},
		{"mismatch first", Account{"a@b.com", "abc", "abd"}, "Passwords do not match"},
		{"short", Account{"a@b.com", "Abc1", "Abc1"}, "Password must be at least 8 characters long"},
		{"no upper", Account{"a@b.com", "abcdef12", "abcdef12"}, "Password must contain at least one uppercase letter"},
		{"no lower", Account{"a@b.com", "ABCDEF12", "ABCDEF12"}, "Password must contain at least one lowercase letter"},
		{"no digit", Account{"a@b.com", "Abcdefgh", "Abcdefgh"}, "Password must contain at least one number"},
		{"empty email", Account{"", "Abcdef12", "Abcdef12"}, "Please enter your email"},
		{"bad email", Account{"not-an-email", "Abcdef12", "Abcdef12"}, "Please enter a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := SubmitAccount(tt.account)
			if tt.want == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.account.Email, d.Email)
				assert.Equal(t, tt.account.Password, d.Password)
				assert.Nil(t, d.Personal)
				return
			}
			assert.Nil(t, d)
			assert.Equal(t, tt.want, messageOf(t, err))
		})
	}
}

// Acceptance is exactly the conjunction of the four predicates plus a
// matching confirmation.
func TestSubmitAccount_PasswordPredicate(t *testing.T) {
	upper := regexp.MustCompile(`[A-Z]`)
	lower := regexp.MustCompile(`[a-z]`)
	digit := regexp.MustCompile(`[0-9]`)
	for _, pw := range []string{
		"", "a", "Abcdef1", "Abcdef12", "ABCDEFG1", "abcdefg1", "Abcdefgh",
		"ÀBCdef12", "Zz9Zz9Zz", "12345678aB", "P@ssw0rd!", "        Aa1",
	} {
		want := len([]rune(pw)) >= 8 && upper.MatchString(pw) && lower.MatchString(pw) && digit.MatchString(pw)
		_, err := SubmitAccount(Account{"a@b.com", pw, pw})
		assert.Equal(t, want, err == nil, "password %q", pw)

		_, err = SubmitAccount(Account{"a@b.com", pw, pw + "x"})
		assert.Error(t, err, "mismatch must always fail for %q", pw)
	}
}

func TestPasswordChecksLabels(t *testing.T) {
	checks := PasswordChecks("abc")
	require.Len(t, checks, 4)
	assert.Equal(t, "At least 8 characters", checks[0].Label)
	assert.False(t, checks[0].OK)
	assert.False(t, checks[1].OK)
	assert.True(t, checks[2].OK)
	assert.False(t, checks[3].OK)
}

func TestEnterPersonalInfo_Guard(t *testing.T) {
	assert.ErrorIs(t, EnterPersonalInfo(nil), ErrNoDraft)
	assert.ErrorIs(t, EnterPersonalInfo(&Draft{Email: "a@b.com"}), ErrNoDraft)
	assert.NoError(t, EnterPersonalInfo(&Draft{Email: "a@b.com", Password: "Abcdef12"}))

	_, err := SubmitPersonalInfo(nil, validPersonal())
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestSubmitPersonalInfo(t *testing.T) {
	draft := &Draft{Email: "a@b.com", Password: "Abcdef12"}
	tests := []struct {
		name   string
		modify func(p *PersonalInfo)
		want   string
	}{
		{"valid", func(*PersonalInfo) {}, ""},
		{"zip plus four", func(p *PersonalInfo) { p.ZipCode = "78701-1234" }, ""},
		{"address line 2 optional", func(p *PersonalInfo) { p.AddressLine2 = "" }, ""},
		{"first name blank", func(p *PersonalInfo) { p.FirstName = "  " }, "Please enter your first name"},
		{"last name", func(p *PersonalInfo) { p.LastName = "" }, "Please enter your last name"},
		{"phone missing", func(p *PersonalInfo) { p.Phone = "" }, "Please enter your phone number"},
		{"phone partial", func(p *PersonalInfo) { p.Phone = "(555) 123" }, "Please enter a valid phone number"},
		{"address", func(p *PersonalInfo) { p.AddressLine1 = "" }, "Please enter your address"},
		{"city", func(p *PersonalInfo) { p.City = "" }, "Please enter your city"},
		{"state missing", func(p *PersonalInfo) { p.State = "" }, "Please select your state"},
		{"state unknown", func(p *PersonalInfo) { p.State = "ZZ" }, "Please select your state"},
		{"zip missing", func(p *PersonalInfo) { p.ZipCode = "" }, "Please enter your ZIP code"},
		{"zip bad", func(p *PersonalInfo) { p.ZipCode = "1234" }, "Please enter a valid ZIP code"},
		{"emergency name", func(p *PersonalInfo) { p.EmergencyContactName = "" }, "Please enter emergency contact name"},
		{"emergency phone missing", func(p *PersonalInfo) { p.EmergencyContactPhone = "" }, "Please enter emergency contact phone"},
		{"emergency phone bad", func(p *PersonalInfo) { p.EmergencyContactPhone = "5551234567" }, "Please enter a valid emergency contact phone number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPersonal()
			tt.modify(&p)
			next, err := SubmitPersonalInfo(draft, p)
			if tt.want == "" {
				require.NoError(t, err)
				require.NotNil(t, next.Personal)
				assert.Equal(t, p, *next.Personal)
				assert.Equal(t, draft.Email, next.Email)
				assert.Nil(t, draft.Personal, "input draft must not change")
				return
			}
			assert.Equal(t, tt.want, messageOf(t, err))
		})
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", ""},
		{"5", "(5"},
		{"555", "(555"},
		{"5551", "(555) 1"},
		{"555123", "(555) 123"},
		{"5551234", "(555) 123-4"},
		{"5551234567", "(555) 123-4567"},
		{"555123456789", "(555) 123-4567"},
		{"(555) 123-4567", "(555) 123-4567"},
		{"555.123.4567", "(555) 123-4567"},
	}
	for _, tt := range tests {
		got := FormatPhone(tt.in)
		assert.Equal(t, tt.want, got, "FormatPhone(%q)", tt.in)
		assert.LessOrEqual(t, len(got), 14)
		assert.Equal(t, got, FormatPhone(got), "idempotent on %q", got)
	}

	// Typing digit by digit ends in a valid number once ten digits are in.
	typed := ""
	for _, r := range "5551234567" {
		typed = FormatPhone(typed + string(r))
	}
	assert.True(t, ValidPhone(typed))
}

func TestFieldValidators(t *testing.T) {
	assert.True(t, ValidZip("12345"))
	assert.True(t, ValidZip("12345-6789"))
	assert.False(t, ValidZip("12345-67"))
	assert.False(t, ValidZip("abcde"))

	assert.Len(t, States, 50)
	assert.True(t, ValidState("WY"))
	assert.False(t, ValidState("tx"))
	assert.False(t, ValidState("DC"))
}

func TestSelectFile(t *testing.T) {
	assert.NoError(t, SelectFile(*MemoryFile("t.pdf", []byte("%PDF"))))
	assert.NoError(t, SelectFile(*MemoryFile("T.DOCX", nil)))
	assert.NoError(t, SelectFile(File{Name: "x", Size: MaxFileSize, ContentType: "image/png"}))

	err := SelectFile(File{Name: "big.pdf", Size: 12 * 1024 * 1024, ContentType: "application/pdf"})
	assert.Equal(t, "File size must be less than 10MB", messageOf(t, err))

	err = SelectFile(*MemoryFile("notes.txt", []byte("hi")))
	assert.Equal(t, "Please upload a PDF, DOC, DOCX, JPG, or PNG file", messageOf(t, err))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	f, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "transcript.pdf", f.Name)
	assert.EqualValues(t, 8, f.Size)
	assert.Equal(t, "application/pdf", f.ContentType)

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
	_, err = OpenFile(t.TempDir())
	assert.Error(t, err)
}

func TestFileSizeString(t *testing.T) {
	assert.Equal(t, "512 B", FileSizeString(512))
	assert.Equal(t, "1.5 KB", FileSizeString(1536))
	assert.Equal(t, "2.0 MB", FileSizeString(2*1024*1024))
}

type fakeRegistrar struct {
	registerErr error
	uploadErr   error
	registered  []domain.RegisterRequest
	uploads     []client.UploadRequest
	uploaded    []byte
}

var newUserID = domain.ID("42")

func (f *fakeRegistrar) Register(_ context.Context, req domain.RegisterRequest) (*domain.User, error) {
	f.registered = append(f.registered, req)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: newUserID, Email: req.Email}, nil
}

func (f *fakeRegistrar) UploadRegistrationDocument(_ context.Context, up client.UploadRequest) (*domain.UploadedDocument, error) {
	f.uploads = append(f.uploads, up)
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, up.Content)
	f.uploaded = buf.Bytes()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &domain.UploadedDocument{ID: domain.ID("doc-" + up.DocumentType), DocumentType: up.DocumentType, FileName: up.FileName}, nil
}

func fullDraft(t *testing.T) *Draft {
	t.Helper()
	d, err := SubmitAccount(Account{"a@b.com", "Abcdef12", "Abcdef12"})
	require.NoError(t, err)
	d, err = SubmitPersonalInfo(d, validPersonal())
	require.NoError(t, err)
	return d
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	r := &fakeRegistrar{}
	file := MemoryFile("transcript.pdf", []byte("%PDF-1.4 body"))

	doc, err := Complete(ctx, r, fullDraft(t), file, true)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeTranscript, doc.DocumentType)

	require.Len(t, r.registered, 1)
	req := r.registered[0]
	assert.Equal(t, domain.RegisterRequest{
		Email: "a@b.com", Password: "Abcdef12", FirstName: "Ana", LastName: "Diaz",
		Phone: "(555) 123-4567", Role: domain.RoleStudent,
	}, req)

	require.Len(t, r.uploads, 1)
	assert.Equal(t, newUserID, r.uploads[0].UserID)
	assert.Equal(t, "transcript", r.uploads[0].DocumentType)
	assert.Equal(t, "application/pdf", r.uploads[0].ContentType)
	assert.Equal(t, "%PDF-1.4 body", string(r.uploaded))
}

func TestComplete_RejectsBeforeNetwork(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		draft  *Draft
		file   *File
		agreed bool
		want   string
	}{
		{"terms first", &Draft{Email: "a@b.com"}, nil, false, "Please agree to the terms and conditions"},
		{"no file", &Draft{Email: "a@b.com"}, nil, true, "Please upload your academic transcript"},
		{"too large", &Draft{Email: "a@b.com"}, &File{Name: "t.pdf", Size: 12 * 1024 * 1024, ContentType: "application/pdf"}, true, "File size must be less than 10MB"},
		{"bad type", &Draft{Email: "a@b.com"}, MemoryFile("t.gif", nil), true, "Please upload a PDF, DOC, DOCX, JPG, or PNG file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRegistrar{}
			_, err := Complete(ctx, r, tt.draft, tt.file, tt.agreed)
			assert.Equal(t, tt.want, messageOf(t, err))
			assert.Empty(t, r.registered)
		})
	}

	r := &fakeRegistrar{}
	_, err := Complete(ctx, r, nil, MemoryFile("t.pdf", nil), true)
	assert.ErrorIs(t, err, ErrNoDraft)
	_, err = Complete(ctx, r, &Draft{}, MemoryFile("t.pdf", nil), true)
	assert.ErrorIs(t, err, ErrNoDraft)
	assert.Empty(t, r.registered)
}

func TestComplete_RegisterFails(t *testing.T) {
	r := &fakeRegistrar{registerErr: errors.New("Email already registered")}
	_, err := Complete(context.Background(), r, fullDraft(t), MemoryFile("t.pdf", nil), true)
	assert.EqualError(t, err, "Email already registered")
	assert.Empty(t, r.uploads)
}

func TestComplete_UploadFailsLeavesAccount(t *testing.T) {
	tests := []struct {
		name      string
		uploadErr error
		want      string
	}{
		{"detail", &client.HTTPError{StatusCode: 400, Detail: "Unsupported file"}, "HTTP 400: Unsupported file"},
		{"no detail", &client.HTTPError{StatusCode: 500, Body: "oops"}, MsgUploadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRegistrar{uploadErr: tt.uploadErr}
			_, err := Complete(context.Background(), r, fullDraft(t), MemoryFile("t.pdf", nil), true)

			var partial *PartialRegistrationError
			require.ErrorAs(t, err, &partial)
			assert.Equal(t, newUserID, partial.UserID)
			assert.Equal(t, tt.want, err.Error())
			assert.Len(t, r.registered, 1)
		})
	}
}

// The documented happy path through all three steps, plus the two
// rejections along the way.
func TestWizardScenario(t *testing.T) {
	d, err := SubmitAccount(Account{Email: "a@b.com", Password: "Abcdef12", ConfirmPassword: "Abcdef12"})
	require.NoError(t, err)
	require.NoError(t, EnterPersonalInfo(d))

	p := validPersonal()
	p.ZipCode = ""
	_, err = SubmitPersonalInfo(d, p)
	assert.Equal(t, "Please enter your ZIP code", messageOf(t, err))

	d, err = SubmitPersonalInfo(d, validPersonal())
	require.NoError(t, err)
	require.NoError(t, EnterDocumentUpload(d))

	r := &fakeRegistrar{}
	big := &File{Name: "t.pdf", Size: 12 * 1024 * 1024, ContentType: "application/pdf",
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("")), nil }}
	_, err = Complete(context.Background(), r, d, big, true)
	assert.Equal(t, "File size must be less than 10MB", messageOf(t, err))
	assert.Empty(t, r.registered)
}
