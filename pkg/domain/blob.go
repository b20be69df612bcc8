package domain

import (
	"bytes"
	"io"
)

// ContentTypePDF is the content type of every downloadable object produced by a session.
const ContentTypePDF = "application/pdf"

// Blob is an immutable, typed byte payload ready to be downloaded or stored.
type Blob struct {
	contentType string
	data        []byte
}

// NewBlob wraps data (taking ownership of the slice) with a content type.
func NewBlob(data []byte, contentType string) *Blob {
	return &Blob{contentType: contentType, data: data}
}

// Type returns the blob's content type.
func (b *Blob) Type() string { return b.contentType }

// Size returns the number of bytes in the blob.
func (b *Blob) Size() int { return len(b.data) }

// Bytes returns a copy of the blob contents.
func (b *Blob) Bytes() []byte {
	return bytes.Clone(b.data)
}

// Reader returns a fresh reader over the blob contents.
func (b *Blob) Reader() io.Reader {
	return bytes.NewReader(b.data)
}

// WriteTo writes the blob to w.
func (b *Blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data)
	return int64(n), err
}
