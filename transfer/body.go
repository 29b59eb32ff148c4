package transfer

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
)

// FieldName is the multipart field carrying the document.
const FieldName = "file"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody frames r as the single file part of a multipart/form-data
// body. The framing is rendered up front so the exact length is known.
type multipartBody struct {
	io.Reader
	contentType string
	length      int64
}

func newMultipartBody(filename, partType string, r io.Reader, size int64) (*multipartBody, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FieldName, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", partType)
	if _, err := mw.CreatePart(h); err != nil {
		return nil, fmt.Errorf("write part header: %w", err)
	}
	head := bytes.Clone(buf.Bytes())

	buf.Reset()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("write closing boundary: %w", err)
	}
	tail := bytes.Clone(buf.Bytes())

	return &multipartBody{
		Reader:      io.MultiReader(bytes.NewReader(head), r, bytes.NewReader(tail)),
		contentType: mw.FormDataContentType(),
		length:      int64(len(head)) + size + int64(len(tail)),
	}, nil
}

// countingReader reports bytes handed to the transport every interval bytes
// and once more at EOF.
type countingReader struct {
	r        io.Reader
	total    int64
	interval int64
	onFirst  func()
	report   func(loaded, total int64)

	once       sync.Once
	loaded     int64
	lastReport int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.once.Do(c.onFirst)
	n, err := c.r.Read(p)
	c.loaded += int64(n)
	if n > 0 && c.loaded-c.lastReport >= c.interval {
		c.lastReport = c.loaded
		c.report(c.loaded, c.total)
	}
	if err == io.EOF && c.lastReport != c.loaded {
		c.lastReport = c.loaded
		c.report(c.loaded, c.total)
	}
	return n, err
}

// firstByteReader calls onFirst before the first successful read.
type firstByteReader struct {
	r       io.Reader
	onFirst func()
	seen    bool
}

func (f *firstByteReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if n > 0 && !f.seen {
		f.seen = true
		f.onFirst()
	}
	return n, err
}
