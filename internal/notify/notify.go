// Package notify composes and delivers transactional email.
package notify

import (
	"context"
	"fmt"
	"strings"
)

// Attachment is a file attached to a message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Message is a plain-text email.
type Message struct {
	To          string       `json:"to"`
	ToName      string       `json:"to_name,omitempty"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Subjects of the transactional messages.
const (
	SubjectOrderConfirmation = "Potvrzení objednávky"
	SubjectPasswordReset     = "Obnovení hesla"
)

// OrderConfirmation builds the checkout confirmation. invoicePDF may be nil,
// in which case the message goes out without attachment.
func OrderConfirmation(email, name string, invoicePDF []byte, fileName string) Message {
	msg := Message{
		To:      email,
		ToName:  name,
		Subject: SubjectOrderConfirmation,
		Body:    fmt.Sprintf("Dobrý den %s,\n\nDěkujeme za Vaši objednávku.", name),
	}
	if len(invoicePDF) > 0 {
		if fileName == "" {
			fileName = "faktura.pdf"
		}
		msg.Attachments = append(msg.Attachments, Attachment{Name: fileName, ContentType: "application/pdf", Data: invoicePDF})
	}
	return msg
}

// PasswordReset builds the reset-link message.
func PasswordReset(email, link string) Message {
	var b strings.Builder
	b.WriteString("Dobrý den,\n\n")
	b.WriteString("pro nastavení nového hesla otevřete následující odkaz:\n")
	b.WriteString(link)
	b.WriteString("\n\nOdkaz je platný jednu hodinu. Pokud jste o změnu hesla nežádali, tento e-mail ignorujte.")
	return Message{To: email, Subject: SubjectPasswordReset, Body: b.String()}
}
