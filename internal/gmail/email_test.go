package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func b64url(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestHeaderValue(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Weekly Update"},
				{Name: "From", Value: "SemiAnalysis <semianalysis@substack.com>"},
			},
		},
	}

	assert.Equal(t, "Weekly Update", HeaderValue(msg, "Subject"))
	assert.Equal(t, "SemiAnalysis <semianalysis@substack.com>", HeaderValue(msg, "From"))
	assert.Equal(t, "", HeaderValue(msg, "Date"))
	assert.Equal(t, "", HeaderValue(&gmail.Message{}, "Subject"))
}

func TestBodiesMultipart(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmail.MessagePart{
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: b64url("plain body")},
				},
				{
					MimeType: "multipart/related",
					Parts: []*gmail.MessagePart{
						{
							MimeType: "text/html",
							Body:     &gmail.MessagePartBody{Data: b64url("<p>html body</p>")},
						},
					},
				},
			},
		},
	}

	text, html := Bodies(msg)
	assert.Equal(t, "plain body", text)
	assert.Equal(t, "<p>html body</p>", html)
}

func TestBodiesUnpaddedData(t *testing.T) {
	raw := "abcde" // length not a multiple of 3 so base64 would be padded
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte(raw))},
		},
	}

	text, _ := Bodies(msg)
	assert.Equal(t, raw, text)
}

func TestBodiesKeepsFirstMatch(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("first")}},
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("second")}},
			},
		},
	}

	text, _ := Bodies(msg)
	assert.Equal(t, "first", text)
}

func TestBodiesNilPayload(t *testing.T) {
	text, html := Bodies(&gmail.Message{})
	assert.Empty(t, text)
	assert.Empty(t, html)
}

func TestNewsletterQuery(t *testing.T) {
	q := NewsletterQuery()

	assert.True(t, strings.HasPrefix(q, "from:("))
	assert.Contains(t, q, "semianalysis@substack.com OR ")
	assert.Contains(t, q, `-"sign in to substack"`)
	assert.Contains(t, q, `-"your payment receipt from"`)
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery([]string{"a@example.com", "b@example.com"}, []string{"noise"})
	assert.Equal(t, `from:(a@example.com OR b@example.com) -"noise"`, q)
}
