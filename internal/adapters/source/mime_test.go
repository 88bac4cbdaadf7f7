package source

import (
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/msg-spam-filter/internal/core"
)

func readMail(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(strings.ReplaceAll(raw, "\n", "\r\n")))
	require.NoError(t, err)
	return msg
}

func TestExtractText_Plain(t *testing.T) {
	msg := readMail(t, `From: a@example.com
Subject: hi

plain body
`)
	text, err := extractText(msg)
	require.NoError(t, err)
	assert.Equal(t, "plain body\r\n", text)
}

func TestExtractText_Base64(t *testing.T) {
	msg := readMail(t, `From: a@example.com
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: base64

Q2xhaW0geW91ciBw
cml6ZSBub3c=
`)
	text, err := extractText(msg)
	require.NoError(t, err)
	assert.Equal(t, "Claim your prize now", text)
}

func TestExtractText_MultipartSkipsHTMLAndAttachments(t *testing.T) {
	msg := readMail(t, `From: a@example.com
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8

Verify your account
--inner
Content-Type: text/html; charset=utf-8

<p>Verify your account</p>
--inner--
--outer
Content-Type: text/plain; name="notes.txt"
Content-Disposition: attachment; filename="notes.txt"

attachment text
--outer--
`)
	text, err := extractText(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "Verify your account")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "attachment text")
}

func TestExtractText_MultipartWithoutText(t *testing.T) {
	msg := readMail(t, `From: a@example.com
Content-Type: multipart/mixed; boundary="b"

--b
Content-Type: image/png
Content-Transfer-Encoding: base64

iVBORw0KGgo=
--b--
`)
	text, err := extractText(msg)
	require.NoError(t, err)
	assert.Equal(t, noTextPlaceholder, text)
}

func TestExtractText_HTMLOnlyFallsBackToStrippedHTML(t *testing.T) {
	msg := readMail(t, `From: a@example.com
Content-Type: multipart/alternative; boundary="b"

--b
Content-Type: text/html; charset=utf-8

<html><head><style>p { color: red; }</style></head>
<body><p>Verify your <b>account</b> now</p>
<a href="http://bit.ly/x">Click here</a>
<script>var hidden = "free";</script></body></html>
--b--
`)
	text, err := extractText(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "Verify your")
	assert.Contains(t, text, "account")
	assert.Contains(t, text, "Click here")
	assert.Contains(t, text, "http://bit.ly/x")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "hidden")
}

func TestExtractText_SinglePartHTML(t *testing.T) {
	msg := readMail(t, `From: a@example.com
Content-Type: text/html; charset=utf-8

<p>Claim your <i>prize</i></p>
`)
	text, err := extractText(msg)
	require.NoError(t, err)
	assert.Equal(t, "Claim your\nprize", text)
}

func TestDecodeHeader(t *testing.T) {
	assert.Equal(t, "Gewinn für Sie", decodeHeader("=?UTF-8?Q?Gewinn_f=C3=BCr_Sie?="))
	assert.Equal(t, "plain", decodeHeader("plain"))
}

func TestSenderAddress(t *testing.T) {
	h := mail.Header{"From": []string{`"Bank Support" <support@bank.example>`}}
	assert.Equal(t, "support@bank.example", senderAddress(h, "<bounce@relay.example>"))

	assert.Equal(t, "bounce@relay.example", senderAddress(mail.Header{}, "<bounce@relay.example>"))
	assert.Equal(t, "bounce@relay.example", senderAddress(mail.Header{"From": []string{"not an address"}}, "bounce@relay.example"))
}

func TestParseEmail(t *testing.T) {
	received := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	raw, err := ParseEmail([]byte("From: Alerts <alerts@bank.example>\r\nSubject: Verify now\r\n\r\nClick the link\r\n"), "bounce@relay.example", received)
	require.NoError(t, err)
	assert.Equal(t, "alerts@bank.example", raw.Address)
	assert.Equal(t, "Verify now", raw.Subject)
	assert.Equal(t, "Click the link\r\n", raw.Body)
	assert.Equal(t, received.UnixMilli(), raw.Timestamp)
	assert.Equal(t, core.SourceEmail, raw.Source)

	_, err = ParseEmail([]byte("no header separator"), "", received)
	assert.Error(t, err)
}
