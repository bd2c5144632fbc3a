package model

// Kind identifies the conversational role of a generated message.
type Kind string

const (
	KindNew     Kind = "new"
	KindReply   Kind = "reply"
	KindForward Kind = "forward"
)

// Identity is a sender account loaded from the identity feed. Identities are
// immutable once loaded; the rest of the system references them by address and
// never copies credentials elsewhere.
type Identity struct {
	// Index is the position of the identity in the feed, used for
	// round-robin sender selection.
	Index int

	// Address is the SMTP address of the account.
	Address string

	// DisplayName is the human-readable name used in message headers.
	DisplayName string

	// Credential is the secret used to authenticate sends from this
	// identity. Empty for identities excluded from sending.
	Credential string
}

// Eligible reports whether the identity may originate sends.
func (i Identity) Eligible() bool {
	return i.Credential != ""
}

// AttachmentRef points at a file-system-resident attachment item from the
// content pool.
type AttachmentRef struct {
	// Path is the absolute path of the attachment file.
	Path string

	// Name is the filename presented in the message.
	Name string

	// Size is the file size in bytes.
	Size int64

	// Tier is the content pool size tier ("small", "medium", "large").
	Tier string
}

// SendRequest is one unit of work for the dispatcher. It is constructed fresh
// by the generator, consumed exactly once, and never mutated in transit.
type SendRequest struct {
	Kind        Kind
	From        Identity
	To          []Identity
	Cc          []Identity
	Subject     string
	Body        string
	Attachments []AttachmentRef

	// InlineImage, when set, is embedded in the body with a Content-ID
	// reference rather than attached.
	InlineImage *AttachmentRef

	// InReplyTo and References carry the origin message id for replies.
	// Forwards leave both empty.
	InReplyTo  string
	References string
}

// SendOutcome is the result of dispatching one SendRequest. Exactly one
// outcome is produced per request.
type SendOutcome struct {
	// OK reports whether the send succeeded.
	OK bool

	// MessageID is the id assigned to the sent message. Set iff OK.
	MessageID string

	// Err holds the failure detail. Set iff !OK.
	Err error
}

// ThreadRecord is one entry in the thread graph: a previously sent message
// that replies and forwards may originate from. Records are append-only and
// never mutated.
type ThreadRecord struct {
	MessageID     string `json:"message_id" db:"message_id"`
	Subject       string `json:"subject" db:"subject"`
	SenderAddr    string `json:"sender_addr" db:"sender_addr"`
	SenderName    string `json:"sender_name" db:"sender_name"`
	RecipientAddr string `json:"recipient_addr" db:"recipient_addr"`
	RecipientName string `json:"recipient_name" db:"recipient_name"`
}
