// Package barcode provides the QR decode step shared by every read path.
//
// A Backend turns a decoded image into zero or more symbols. The default
// backend is built on gozxing: the image is converted into a luminance
// source, binarized with a HybridBinarizer and handed to the QR reader in a
// single pass. Failing to locate or decode a symbol is reported as
// ErrNotFound so callers can treat it as an ordinary outcome.
package barcode
