package sms

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Messenger is the mail transport the texter rides on.
type Messenger interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Carrier email-to-SMS gateways. The carrier hint from the caller picks one;
// anything unknown falls back to the configured default domain.
var gateways = map[string]string{
	"att":     "txt.att.net",
	"tmobile": "tmomail.net",
	"verizon": "vtext.com",
	"sprint":  "messaging.sprintpcs.com",
}

// Texter delivers short codes by mailing <digits>@<carrier-domain>. It
// implements interfaces.CodeSender.
type Texter struct {
	defaultDomain string
	messenger     Messenger
	log           *zap.Logger
}

func NewTexter(defaultDomain string, messenger Messenger, log *zap.Logger) *Texter {
	return &Texter{defaultDomain: defaultDomain, messenger: messenger, log: log}
}

func (t *Texter) SendCode(ctx context.Context, phone, carrier, code string) error {
	number := digits(phone)
	if number == "" {
		return fmt.Errorf("sms: no digits in phone %q", phone)
	}

	domain := t.domainFor(carrier)
	if domain == "" {
		return fmt.Errorf("sms: no gateway domain configured")
	}

	addr := number + "@" + domain
	body := fmt.Sprintf("Your verification code is %s.", code)

	t.log.Debug("sms dispatch", zap.String("gateway", domain))
	if err := t.messenger.Send(ctx, addr, "Verification code", body); err != nil {
		return fmt.Errorf("sms: %w", err)
	}
	return nil
}

func (t *Texter) domainFor(carrier string) string {
	if d, ok := gateways[strings.ToLower(strings.TrimSpace(carrier))]; ok {
		return d
	}
	return t.defaultDomain
}

func digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
