package routes

import (
	"creerlio_server/controllers"
	"creerlio_server/services"

	"github.com/gorilla/mux"
)

// RegisterConnectionRoutes sets up routes for connection lifecycle operations under /api/connections
func RegisterConnectionRoutes(r *mux.Router, connectionService *services.ConnectionService) {
	controller := controllers.NewConnectionController(connectionService)

	connectionRouter := r.PathPrefix("/api/connections").Subrouter()
	connectionRouter.HandleFunc("/request", controller.HandleRequestConnection).Methods("POST")
	connectionRouter.HandleFunc("/respond", controller.HandleRespond).Methods("POST")
	connectionRouter.HandleFunc("/discontinue", controller.HandleDiscontinue).Methods("POST")
	connectionRouter.HandleFunc("/request-reconnect", controller.HandleRequestReconnect).Methods("POST")
	connectionRouter.HandleFunc("/respond-reconnect", controller.HandleRespondReconnect).Methods("POST")
	connectionRouter.HandleFunc("", controller.HandleListConnections).Methods("GET")
}
