package routes

import (
	"creerlio_server/controllers"
	"creerlio_server/services"

	"github.com/gorilla/mux"
)

// RegisterConversationRoutes sets up routes for conversation operations under /api/conversations
func RegisterConversationRoutes(r *mux.Router, conversationService *services.ConversationService) {
	controller := controllers.NewConversationController(conversationService)

	conversationRouter := r.PathPrefix("/api/conversations").Subrouter()
	conversationRouter.HandleFunc("/ensure", controller.HandleEnsureConversation).Methods("POST")
	conversationRouter.HandleFunc("/message", controller.HandleSendMessage).Methods("POST")
	conversationRouter.HandleFunc("/messages", controller.HandleGetMessages).Methods("GET")
	conversationRouter.HandleFunc("/summaries", controller.HandleGetSummaries).Methods("GET")
}
