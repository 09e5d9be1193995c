package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MeKo-Tech/pdfqr/pkg/qrreader"
)

// codeReport is one decoded symbol in JSON output. Pages are zero-based.
type codeReport struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// fileReport is the JSON line written for each input file.
type fileReport struct {
	File    string       `json:"file"`
	Found   bool         `json:"found"`
	Text    string       `json:"text,omitempty"`
	Page    *int         `json:"page,omitempty"`
	Results []codeReport `json:"results,omitempty"`
}

func singleReport(file string, res qrreader.Result, withPage bool) fileReport {
	r := fileReport{File: file, Found: res.Found(), Text: res.Text}
	if withPage && res.Found() {
		page := res.Page
		r.Page = &page
	}
	return r
}

func multiReport(file string, hits []qrreader.Result) fileReport {
	r := fileReport{File: file, Found: len(hits) > 0, Results: []codeReport{}}
	for _, h := range hits {
		r.Results = append(r.Results, codeReport{Text: h.Text, Page: h.Page})
	}
	return r
}

// reportWriter collects output for one command run.
type reportWriter struct {
	format string
	multi  bool // more than one input file
	buf    bytes.Buffer
}

// add renders one report. Text output prints the payload alone, prefixed
// with the file name when several files were given; misses print nothing.
func (w *reportWriter) add(r fileReport) error {
	if w.format == "json" {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		w.buf.Write(data)
		w.buf.WriteByte('\n')
		return nil
	}

	prefix := ""
	if w.multi {
		prefix = r.File + ": "
	}
	if r.Results != nil {
		for _, c := range r.Results {
			fmt.Fprintf(&w.buf, "%s[page %d] %s\n", prefix, c.Page+1, c.Text)
		}
		return nil
	}
	if r.Found {
		fmt.Fprintf(&w.buf, "%s%s\n", prefix, r.Text)
	}
	return nil
}

// flush writes the collected output to file, or to out when file is empty.
func (w *reportWriter) flush(out io.Writer, file string) error {
	if file != "" {
		if err := os.WriteFile(file, w.buf.Bytes(), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err := out.Write(w.buf.Bytes())
	return err
}
