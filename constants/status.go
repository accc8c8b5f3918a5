package constants

// ReceiptStatus is the poll-visible state of an uploaded receipt.
type ReceiptStatus string

// Stable values (returned to API clients).
const (
	ReceiptStatusPending   ReceiptStatus = "PENDING"   // gateway still processing
	ReceiptStatusProcessed ReceiptStatus = "PROCESSED" // result stored, items classified
	ReceiptStatusError     ReceiptStatus = "ERROR"     // poll failed; safe to retry
)

// MessageRole is the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r MessageRole) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
