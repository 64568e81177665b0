package interfaces

import "context"

// Messenger delivers account mail: verification links, reset links.
type Messenger interface {
	Send(ctx context.Context, to, subject, body string) error
}

// CodeSender delivers short numeric codes to a phone number. The carrier
// name selects the delivery gateway and may be empty for the default.
type CodeSender interface {
	SendCode(ctx context.Context, phone, carrier, code string) error
}
