package encode

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const (
	// ContentTypeForm is the content type of a form-urlencoded body.
	ContentTypeForm = "application/x-www-form-urlencoded"
	// AttachmentContentType is the fixed content type given to every
	// binary part, regardless of what the bytes actually hold.
	AttachmentContentType = "image/png"
)

// Body is a fully assembled request payload.
type Body struct {
	Data        []byte
	ContentType string
}

// Values percent-encodes a parameter map into name=value pairs joined
// by &. Spaces encode as +. Pair order is not part of the contract.
func Values(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	v := url.Values{}
	for name, value := range params {
		v.Set(name, value)
	}
	return v.Encode()
}

// QueryURL merges params into rawURL's query component. A URL that does
// not parse is returned untouched; it will be rejected when the request
// is built.
func QueryURL(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for name, value := range params {
		q.Set(name, value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Payload chooses and builds the body for a request. Only POST and PUT
// carry bodies. A body is multipart when form fields and binary parts
// are both present, form-urlencoded when only form fields are, and
// absent otherwise — binary parts alone yield no body.
func Payload(method string, form map[string]string, parts map[string][]byte) (Body, error) {
	if method != http.MethodPost && method != http.MethodPut {
		return Body{}, nil
	}
	switch {
	case len(form) > 0 && len(parts) > 0:
		return Multipart(form, parts)
	case len(form) > 0:
		return Body{Data: []byte(Values(form)), ContentType: ContentTypeForm}, nil
	default:
		return Body{}, nil
	}
}

// Multipart assembles a multipart/form-data body with a fresh UUID as
// the boundary. Form fields are written first, then binary parts; each
// binary part is named <unix-ms>.png and typed image/png.
func Multipart(form map[string]string, parts map[string][]byte) (Body, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	if err := writer.SetBoundary(uuid.NewString()); err != nil {
		return Body{}, fmt.Errorf("set multipart boundary: %w", err)
	}

	for name, value := range form {
		if err := writer.WriteField(name, value); err != nil {
			return Body{}, fmt.Errorf("write form field %q: %w", name, err)
		}
	}

	stamp := time.Now().UnixMilli()
	for field, data := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="%d.png"`, field, stamp))
		header.Set("Content-Type", AttachmentContentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return Body{}, fmt.Errorf("create part %q: %w", field, err)
		}
		if _, err := part.Write(data); err != nil {
			return Body{}, fmt.Errorf("write part %q: %w", field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return Body{}, fmt.Errorf("close multipart body: %w", err)
	}

	return Body{Data: buf.Bytes(), ContentType: writer.FormDataContentType()}, nil
}
