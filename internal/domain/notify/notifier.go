package notify

import "context"

// Target is the routing information for one delivery.
type Target struct {
	// Channel is the resource's configured chat channel hint (webhook
	// routing, role mention resolution).
	Channel string
	// ChatID is used by chat-bot notifiers that address numeric chats.
	ChatID int64
	// OwnerID is the billable owning entity resolved for this reminder.
	OwnerID int64
}

// Field is one key/value pair rendered into the delivered message.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a fully rendered reminder, ready for delivery. Rendering is
// pure; everything delivery needs is in here.
type Message struct {
	Kind    Kind
	Title   string
	Body    string
	Mention string
	Fields  []Field
}

// Notifier performs best-effort delivery of a rendered message. The engine
// treats it as a black box: an error means the reservation for the message
// is retracted and delivery retried on a later tick.
type Notifier interface {
	Deliver(ctx context.Context, target Target, msg Message) error
}
