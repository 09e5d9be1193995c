package support

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/MeKo-Tech/pdfqr/internal/server"
	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
	"github.com/cucumber/godog"
)

// startServer serves a fresh server.Server through httptest.
func (testCtx *TestContext) startServer(cfg server.Config) error {
	if testCtx.HTTPServer != nil {
		return errors.New("server already running")
	}
	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	testCtx.HTTPServer = httptest.NewServer(mux)
	return nil
}

// theServerIsRunning starts a server with default settings.
func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.startServer(server.Config{
		CORSOrigin: "*",
		Reader:     qrreader.DefaultConfig(),
	})
}

// theServerIsRunningWithRateLimit starts a server allowing n requests per minute.
func (testCtx *TestContext) theServerIsRunningWithRateLimit(n int) error {
	return testCtx.startServer(server.Config{
		CORSOrigin: "*",
		Reader:     qrreader.DefaultConfig(),
		RateLimit:  server.RateLimitConfig{Enabled: true, RequestsPerMinute: n},
	})
}

// iUpload posts a fixture as a multipart file field.
func (testCtx *TestContext) iUpload(name, endpoint string) error {
	return testCtx.upload(name, endpoint, nil)
}

// iUploadWithField posts a fixture plus one extra form field.
func (testCtx *TestContext) iUploadWithField(name, endpoint, field, value string) error {
	return testCtx.upload(name, endpoint, map[string]string{field: value})
}

func (testCtx *TestContext) upload(name, endpoint string, fields map[string]string) error {
	if testCtx.HTTPServer == nil {
		return errors.New("server is not running")
	}
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	fileField := "image"
	if strings.HasSuffix(endpoint, "/pdf") {
		fileField = "pdf"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(fileField, name)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, testCtx.HTTPServer.URL+endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

// iRequest sends a GET request.
func (testCtx *TestContext) iRequest(endpoint string) error {
	if testCtx.HTTPServer == nil {
		return errors.New("server is not running")
	}
	req, err := http.NewRequest(http.MethodGet, testCtx.HTTPServer.URL+endpoint, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) do(req *http.Request) error {
	resp, err := testCtx.HTTPServer.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = map[string]string{}
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

// theResponseStatusShouldBe checks the last HTTP status code.
func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("status is %d, want %d\nBody: %s", testCtx.LastHTTPStatusCode, code, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseJSONFieldShouldBe checks a dotted path in the last response body.
func (testCtx *TestContext) theResponseJSONFieldShouldBe(path, expected string) error {
	return checkJSONField(testCtx.LastHTTPResponse, path, expected)
}

// theResponseShouldContain checks the raw response body.
func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

// theResponseHeaderShouldBe checks one header of the last response.
func (testCtx *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	actual := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]
	if actual != expected {
		return fmt.Errorf("header %s is %q, want %q", name, actual, expected)
	}
	return nil
}

// RegisterServerSteps registers HTTP server steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the QR server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the QR server is running with a limit of (\d+) requests? per minute$`,
		testCtx.theServerIsRunningWithRateLimit)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUpload)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)" with "([^"]*)" set to "([^"]*)"$`, testCtx.iUploadWithField)
	sc.Step(`^I request "([^"]*)"$`, testCtx.iRequest)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
}
