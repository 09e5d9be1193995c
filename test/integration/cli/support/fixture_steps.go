package support

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/cucumber/godog"
	qrcode "github.com/skip2/go-qrcode"
)

// aQRImageContaining writes a PNG holding a single QR code.
func (testCtx *TestContext) aQRImageContaining(name, content string) error {
	data, err := qrcode.Encode(content, qrcode.Medium, 300)
	if err != nil {
		return fmt.Errorf("failed to encode QR code: %w", err)
	}
	return testCtx.writeFixture(name, data)
}

// anImageWithoutQRCode writes a PNG with a line of text and no code.
func (testCtx *TestContext) anImageWithoutQRCode(name string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testutil.TextImage(300, 300, "nothing to scan")); err != nil {
		return err
	}
	return testCtx.writeFixture(name, buf.Bytes())
}

// aPDFWithQRCodeOnPage writes a PDF whose only code sits on the given 1-based page.
func (testCtx *TestContext) aPDFWithQRCodeOnPage(name string, pages int, content string, page int) error {
	data, err := testutil.BuildQRPDF(content, pages, page-1)
	if err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	return testCtx.writeFixture(name, data)
}

// aPDFWithoutQRCode writes a PDF with no code on any page.
func (testCtx *TestContext) aPDFWithoutQRCode(name string, pages int) error {
	data, err := testutil.BuildQRPDF("", pages, -1)
	if err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	return testCtx.writeFixture(name, data)
}

// anEncryptedPDF writes a one-page PDF locked with user and owner passwords.
func (testCtx *TestContext) anEncryptedPDF(name, content, userPW, ownerPW string) error {
	plain, err := testutil.BuildQRPDF(content, 1, 0)
	if err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	locked, err := testutil.Encrypt(plain, userPW, ownerPW)
	if err != nil {
		return fmt.Errorf("failed to encrypt PDF: %w", err)
	}
	return testCtx.writeFixture(name, locked)
}

// aCorruptFile writes bytes that are neither an image nor a PDF.
func (testCtx *TestContext) aCorruptFile(name string) error {
	return testCtx.writeFixture(name, []byte("this is not what the extension says"))
}

// RegisterFixtureSteps registers the steps that create input files.
func (testCtx *TestContext) RegisterFixtureSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a QR image "([^"]*)" containing "([^"]*)"$`, testCtx.aQRImageContaining)
	sc.Step(`^an image "([^"]*)" without a QR code$`, testCtx.anImageWithoutQRCode)
	sc.Step(`^a PDF "([^"]*)" with (\d+) pages? and a QR code containing "([^"]*)" on page (\d+)$`,
		testCtx.aPDFWithQRCodeOnPage)
	sc.Step(`^a PDF "([^"]*)" with (\d+) pages? and no QR code$`, testCtx.aPDFWithoutQRCode)
	sc.Step(`^an encrypted PDF "([^"]*)" containing "([^"]*)" with user password "([^"]*)" and owner password "([^"]*)"$`,
		testCtx.anEncryptedPDF)
	sc.Step(`^a corrupt file "([^"]*)"$`, testCtx.aCorruptFile)
}
