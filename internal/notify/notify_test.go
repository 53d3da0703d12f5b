package notify

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderConfirmationText(t *testing.T) {
	msg := OrderConfirmation("jana@example.cz", "Jana", []byte("%PDF"), "faktura_F007.pdf")

	assert.Equal(t, "Potvrzení objednávky", msg.Subject)
	assert.Equal(t, "Dobrý den Jana,\n\nDěkujeme za Vaši objednávku.", msg.Body)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
}

func TestOrderConfirmationWithoutInvoice(t *testing.T) {
	msg := OrderConfirmation("jana@example.cz", "Jana", nil, "")
	assert.Empty(t, msg.Attachments)
}

func TestPasswordResetContainsLink(t *testing.T) {
	msg := PasswordReset("a@b.cz", "http://localhost:8080/reset_password/abc")
	assert.Contains(t, msg.Body, "http://localhost:8080/reset_password/abc")
	assert.Equal(t, SubjectPasswordReset, msg.Subject)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestComposeIncludesAttachment(t *testing.T) {
	mailer, err := NewMailer(SMTPConfig{Host: "localhost", From: "obchod@artemoderno.local"}, discard())
	require.NoError(t, err)

	out, err := mailer.Compose(OrderConfirmation("jana@example.cz", "Jana", []byte("%PDF-1.7"), "faktura_F007.pdf"))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = out.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "jana@example.cz")
	assert.Contains(t, raw, "obchod@artemoderno.local")
	assert.Contains(t, raw, "faktura_F007.pdf")
	assert.Contains(t, raw, "application/pdf")
}

func TestComposeRejectsBadRecipient(t *testing.T) {
	mailer, err := NewMailer(SMTPConfig{Host: "localhost", From: "obchod@artemoderno.local"}, discard())
	require.NoError(t, err)

	_, err = mailer.Compose(Message{To: "not an address", Subject: "x"})
	assert.Error(t, err)
}

func TestSendFailsWhenServerDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	mailer, err := NewMailer(SMTPConfig{Host: "127.0.0.1", Port: port, From: "obchod@artemoderno.local", Timeout: time.Second}, discard())
	require.NoError(t, err)

	err = mailer.Send(context.Background(), PasswordReset("a@b.cz", "http://x"))
	assert.Error(t, err)
}

func TestNewMailerValidates(t *testing.T) {
	_, err := NewMailer(SMTPConfig{From: "a@b.cz"}, nil)
	assert.Error(t, err)
	_, err = NewMailer(SMTPConfig{Host: "localhost"}, nil)
	assert.Error(t, err)
}
