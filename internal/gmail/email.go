package gmail

import (
	"encoding/base64"

	gmail "google.golang.org/api/gmail/v1"
)

// HeaderValue extracts a header value from a Gmail message.
func HeaderValue(m *gmail.Message, header string) string {
	mpart := m.Payload
	if mpart == nil {
		return ""
	}
	for _, mph := range mpart.Headers {
		if mph.Name == header {
			return mph.Value
		}
	}
	return ""
}

// Bodies walks the MIME part tree of a message and returns the first
// text/plain and text/html bodies it finds, decoded from base64url.
func Bodies(m *gmail.Message) (text, html string) {
	if m.Payload == nil {
		return "", ""
	}
	walkParts(m.Payload, func(part *gmail.MessagePart) {
		if part.Body == nil || part.Body.Data == "" {
			return
		}
		decoded, err := decodeBase64URL(part.Body.Data)
		if err != nil {
			return
		}
		switch part.MimeType {
		case "text/plain":
			if text == "" {
				text = decoded
			}
		case "text/html":
			if html == "" {
				html = decoded
			}
		}
	})
	return text, html
}

// walkParts visits a MIME part and all its descendants.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, p := range part.Parts {
		walkParts(p, fn)
	}
}

// decodeBase64URL decodes Gmail body data, which is base64url encoded
// (RFC 4648) and usually unpadded.
func decodeBase64URL(data string) (string, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b), nil
	}
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
