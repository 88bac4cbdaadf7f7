package source

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mikey/msg-spam-filter/internal/core"
)

const noTextPlaceholder = "[No text content found in multipart message]"

var headerDecoder = new(mime.WordDecoder)

// decodeHeader decodes RFC 2047 encoded words, returning the input on failure
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// senderAddress returns the bare address from a From header, falling back to envelope
func senderAddress(header mail.Header, envelope string) string {
	if from := header.Get("From"); from != "" {
		if addr, err := mail.ParseAddress(decodeHeader(from)); err == nil {
			return addr.Address
		}
	}
	return strings.Trim(envelope, "<>")
}

// extractText returns the text/plain content of a message. Multipart bodies
// are walked recursively and attachments are skipped. HTML is used, with tags
// stripped, only when no text/plain part exists.
func extractText(msg *mail.Message) (string, error) {
	return extractPart(msg.Body, msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"))
}

func extractPart(body io.Reader, contentType, encoding string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if contentType == "" || err != nil {
		mediaType = "text/plain"
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		decoded := decodeTransfer(body, encoding)
		if mediaType == "text/html" {
			return htmlText(decoded), nil
		}
		data, err := io.ReadAll(decoded)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var text, htmlFallback bytes.Buffer
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// keep whatever was read before the broken part
			break
		}

		partType := strings.ToLower(part.Header.Get("Content-Type"))
		switch {
		case strings.HasPrefix(partType, "multipart/"):
			nested, err := extractPart(part, part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"))
			if err == nil && nested != noTextPlaceholder {
				text.WriteString(nested)
			}
		case partType == "" || strings.HasPrefix(partType, "text/plain"):
			if part.FileName() != "" {
				continue
			}
			data, err := io.ReadAll(decodeTransfer(part, part.Header.Get("Content-Transfer-Encoding")))
			if err != nil {
				continue
			}
			text.Write(data)
			text.WriteString("\n")
		case strings.HasPrefix(partType, "text/html"):
			if part.FileName() != "" {
				continue
			}
			if stripped := htmlText(decodeTransfer(part, part.Header.Get("Content-Transfer-Encoding"))); stripped != "" {
				htmlFallback.WriteString(stripped)
				htmlFallback.WriteString("\n")
			}
		}
	}

	if text.Len() == 0 {
		text.Write(htmlFallback.Bytes())
	}
	if text.Len() == 0 {
		return noTextPlaceholder, nil
	}
	return text.String(), nil
}

// htmlText returns the visible text of an HTML document, one line per text
// run, followed by the link targets so hidden URLs are still scored.
// Script and style contents are dropped.
func htmlText(r io.Reader) string {
	var (
		lines []string
		links []string
		skip  int
	)

	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(append(lines, links...), "\n")
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if line := strings.Join(strings.Fields(string(z.Text())), " "); line != "" {
				lines = append(lines, line)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "a":
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "href" && len(val) > 0 {
						links = append(links, string(val))
					}
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if (string(name) == "script" || string(name) == "style") && skip > 0 {
				skip--
			}
		}
	}
}

// decodeTransfer undoes base64 and quoted-printable transfer encodings.
// multipart.Part decodes quoted-printable itself and drops the header.
func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// ParseEmail turns an RFC 5322 message into an EMAIL RawMessage. The Date
// header sets the timestamp, falling back to received; the From header sets
// the address, falling back to envelopeSender.
func ParseEmail(data []byte, envelopeSender string, received time.Time) (core.RawMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return core.RawMessage{}, err
	}

	body, err := extractText(msg)
	if err != nil {
		return core.RawMessage{}, err
	}

	if date, err := msg.Header.Date(); err == nil {
		received = date
	}

	return core.RawMessage{
		Address:   senderAddress(msg.Header, envelopeSender),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		Body:      body,
		Timestamp: received.UnixMilli(),
		Source:    core.SourceEmail,
	}, nil
}
