// Package qrreader extracts QR code payloads from images and from rendered
// PDF pages.
//
// A Reader holds the rendering configuration (target page size, background
// color, renderer, decoder). PDF scans walk pages in ascending order and stop
// at the first page whose payload is not blank. A missing code is a normal
// outcome reported through Result.Found, never through an error. Errors are
// reserved for unreadable input and out-of-range page requests.
//
// The package-level functions use DefaultConfig.
package qrreader
