package email

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSendApprovalEmail_Unconfigured(t *testing.T) {
	var buf bytes.Buffer
	svc := NewEmailService(SMTPConfig{BaseURL: "http://class.test"}, zerolog.New(&buf))

	if err := svc.SendApprovalEmail("minji@school.kr", "Minji"); err != nil {
		t.Fatalf("unconfigured SMTP must not fail: %v", err)
	}
	if !strings.Contains(buf.String(), "http://class.test/login") {
		t.Fatalf("expected login url in log, got %s", buf.String())
	}
}

func TestBuildMessage(t *testing.T) {
	svc := &EmailServiceImpl{config: SMTPConfig{FromName: "ClassHub", FromEmail: "no-reply@class.test"}}
	msg := string(svc.buildMessage("minji@school.kr", "hello", "<p>hi</p>"))

	for _, want := range []string{
		"From: ClassHub <no-reply@class.test>\r\n",
		"To: minji@school.kr\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n\r\n<p>hi</p>",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}
