package pipeline

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"
)

// Attachment is one file carried by a report mail.
type Attachment struct {
	Name    string
	Content []byte
}

// ExtractAttachments parses a stored raw RFC-822 message and returns its
// subject plus every attachment. Inline parts with a filename (common for
// portal notification mails) count as attachments too.
func ExtractAttachments(raw []byte) (string, []Attachment, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", nil, err
	}

	parts := make([]*enmime.Part, 0, len(env.Attachments)+len(env.Inlines))
	parts = append(parts, env.Attachments...)
	parts = append(parts, env.Inlines...)

	out := make([]Attachment, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part.FileName)
		if name == "" || len(part.Content) == 0 {
			continue
		}
		out = append(out, Attachment{Name: name, Content: part.Content})
	}

	return env.GetHeader("Subject"), out, nil
}

// AttachmentNames lists the filenames for detection scoring.
func AttachmentNames(attachments []Attachment) []string {
	out := make([]string, 0, len(attachments))
	for _, att := range attachments {
		out = append(out, att.Name)
	}
	return out
}
