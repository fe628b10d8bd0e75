package handler

import "github.com/go-chi/chi/v5"

// Routes mounts the chat API onto r. Authentication middleware is the caller's concern.
func Routes(chats *ChatHandler, msgs *MessageHandler, support *SupportHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/api/chats", chats.ListChats)
		r.Post("/api/chats", chats.CreateChat)
		r.Post("/api/chats/support", support.CreateTicket)
		r.Route("/api/chats/{id}", func(r chi.Router) {
			r.Get("/", chats.GetChat)
			r.Put("/", chats.UpdateChat)
			r.Delete("/", chats.DeleteChat)
			r.Put("/archive", chats.ToggleArchive)
			r.Put("/read", chats.MarkRead)
			r.Put("/support-status", support.UpdateStatus)
			r.Get("/pinned", msgs.GetPinnedMessages)
			r.Get("/messages", msgs.GetMessages)
			r.Post("/messages", msgs.SendMessage)
			r.Put("/messages/{messageId}", msgs.EditMessage)
			r.Delete("/messages/{messageId}", msgs.DeleteMessage)
			r.Post("/messages/{messageId}/reactions", msgs.ToggleReaction)
			r.Put("/messages/{messageId}/pin", msgs.TogglePin)
		})
	}
}
