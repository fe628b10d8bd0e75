package chat

import "github.com/eduhub/internal/model"

// Capability names an action guarded by a role check.
type Capability int

const (
	CapReadChat Capability = iota
	CapSendMessage
	CapEditMessage
	CapDeleteMessage
	CapReact
	CapPin
	CapUpdateChat
	CapArchiveChat
	CapDeleteChat
	CapChangeSupportStatus
)

var capabilityNames = [...]string{
	CapReadChat:            "read_chat",
	CapSendMessage:         "send_message",
	CapEditMessage:         "edit_message",
	CapDeleteMessage:       "delete_message",
	CapReact:               "react",
	CapPin:                 "pin",
	CapUpdateChat:          "update_chat",
	CapArchiveChat:         "archive_chat",
	CapDeleteChat:          "delete_chat",
	CapChangeSupportStatus: "change_support_status",
}

func (c Capability) String() string {
	if int(c) < len(capabilityNames) {
		return capabilityNames[c]
	}
	return "unknown"
}

// isChatAdmin reports whether actor holds the chat-scoped admin role in c.
func isChatAdmin(actor model.Actor, c *model.Chat) bool {
	p := c.Participant(actor.ID)
	return p != nil && p.Role == model.ChatRoleAdmin
}

// CanParticipate covers every capability that only needs membership.
func CanParticipate(actor model.Actor, c *model.Chat) bool {
	return c.HasParticipant(actor.ID)
}

// CanEditMessage: the sender only; chat admins may delete but not edit.
func CanEditMessage(actor model.Actor, m *model.Message) bool {
	return m.SenderID == actor.ID
}

// CanDeleteMessage: the sender or any chat admin.
func CanDeleteMessage(actor model.Actor, c *model.Chat, m *model.Message) bool {
	return m.SenderID == actor.ID || isChatAdmin(actor, c)
}

// CanUpdateChat: the creator or any chat admin.
func CanUpdateChat(actor model.Actor, c *model.Chat) bool {
	return c.CreatedBy == actor.ID || isChatAdmin(actor, c)
}

// CanDeleteChat: the creator only.
func CanDeleteChat(actor model.Actor, c *model.Chat) bool {
	return c.CreatedBy == actor.ID
}

// CanChangeSupportStatus depends on the platform role only.
func CanChangeSupportStatus(actor model.Actor) bool {
	return actor.IsAdmin()
}

// Can evaluates capability for actor on c. m is required for message-scoped
// capabilities and ignored otherwise.
func Can(actor model.Actor, capability Capability, c *model.Chat, m *model.Message) bool {
	switch capability {
	case CapReadChat, CapSendMessage, CapReact, CapPin, CapArchiveChat:
		return CanParticipate(actor, c)
	case CapEditMessage:
		return m != nil && CanParticipate(actor, c) && CanEditMessage(actor, m)
	case CapDeleteMessage:
		return m != nil && CanParticipate(actor, c) && CanDeleteMessage(actor, c, m)
	case CapUpdateChat:
		return CanParticipate(actor, c) && CanUpdateChat(actor, c)
	case CapDeleteChat:
		return CanParticipate(actor, c) && CanDeleteChat(actor, c)
	case CapChangeSupportStatus:
		return CanChangeSupportStatus(actor)
	}
	return false
}
