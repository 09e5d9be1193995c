package raster

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrPasswordRequired is returned when an encrypted PDF cannot be opened
// with the supplied credentials.
var ErrPasswordRequired = errors.New("pdf is encrypted: valid password required")

// Credentials holds the passwords for an encrypted PDF.
type Credentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

// Empty reports whether no password was supplied.
func (c Credentials) Empty() bool { return c.UserPassword == "" && c.OwnerPassword == "" }

// IsEncrypted reports whether data carries an encryption dictionary.
func IsEncrypted(data []byte) (bool, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		if isPasswordError(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
	}
	return ctx.Encrypt != nil, nil
}

// Decrypt removes encryption from data using creds and returns a plain copy.
func Decrypt(data []byte, creds Credentials) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = creds.UserPassword
	conf.OwnerPW = creds.OwnerPassword

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, conf); err != nil {
		if isPasswordError(err) {
			return nil, fmt.Errorf("%w: %v", ErrPasswordRequired, err)
		}
		return nil, fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return out.Bytes(), nil
}

// PrepareDocument decrypts data when it is encrypted and credentials were given.
// Unencrypted input is returned unchanged.
func PrepareDocument(data []byte, creds Credentials) ([]byte, error) {
	if creds.Empty() {
		return data, nil
	}
	encrypted, err := IsEncrypted(data)
	if err != nil {
		return nil, err
	}
	if !encrypted {
		return data, nil
	}
	return Decrypt(data, creds)
}

// isPasswordError matches the renderers' password sentinels. The message
// check covers pdfcpu paths that flatten the sentinel into text.
func isPasswordError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fitz.ErrNeedsPassword) || errors.Is(err, pdfcpu.ErrWrongPassword) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "password")
}
