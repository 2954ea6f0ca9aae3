package webarchive

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"time"

	"github.com/google/uuid"
)

// warcVersion is the record-format line every WARC record starts with.
// No WARC-writing library appears anywhere in the retrieved pack or its
// transitive ecosystem footprint, so this is a minimal hand-rolled
// WARC/1.1 writer built on bufio and net/textproto, a documented stdlib
// exception.
const warcVersion = "WARC/1.1"

// writeWARCInfo writes the mandatory warcinfo record that opens every
// WARC file, identifying the writer.
func writeWARCInfo(w *bufio.Writer, recordedAt time.Time) error {
	body := fmt.Sprintf("software: archivist-core webarchive\r\nformat: WARC File Format 1.1\r\n")
	return writeRecord(w, textproto.MIMEHeader{
		"WARC-Type":        {"warcinfo"},
		"WARC-Record-ID":   {warcID()},
		"WARC-Date":        {recordedAt.UTC().Format(time.RFC3339)},
		"Content-Type":     {"application/warc-fields"},
		"Content-Length":   {fmt.Sprint(len(body))},
	}, []byte(body))
}

// writeWARCResponse writes one "response" record capturing a fetched
// page: the target URI, capture time, and raw HTTP response bytes
// (status line + headers + body), per the WARC/1.1 response record
// shape.
func writeWARCResponse(w *bufio.Writer, targetURI string, recordedAt time.Time, httpResponseBytes []byte) error {
	return writeRecord(w, textproto.MIMEHeader{
		"WARC-Type":      {"response"},
		"WARC-Record-ID": {warcID()},
		"WARC-Target-URI": {targetURI},
		"WARC-Date":      {recordedAt.UTC().Format(time.RFC3339)},
		"Content-Type":   {"application/http;msgtype=response"},
		"Content-Length": {fmt.Sprint(len(httpResponseBytes))},
	}, httpResponseBytes)
}

func writeRecord(w *bufio.Writer, header textproto.MIMEHeader, body []byte) error {
	if _, err := fmt.Fprintf(w, "%s\r\n", warcVersion); err != nil {
		return err
	}
	for key, values := range header {
		for _, v := range values {
			if _, err := fmt.Fprintf(w, "%s: %s\r\n", key, v); err != nil {
				return err
			}
		}
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n\r\n")
	return err
}

func warcID() string {
	return "<urn:uuid:" + uuid.NewString() + ">"
}

// WriteWARC writes a one-page WARC/1.1 file to w: a warcinfo record
// followed by a single response record for targetURI.
func WriteWARC(w io.Writer, targetURI string, recordedAt time.Time, httpResponseBytes []byte) error {
	bw := bufio.NewWriter(w)
	if err := writeWARCInfo(bw, recordedAt); err != nil {
		return err
	}
	if err := writeWARCResponse(bw, targetURI, recordedAt, httpResponseBytes); err != nil {
		return err
	}
	return bw.Flush()
}
