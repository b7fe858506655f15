package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/uc-cdis/bactmap/params"
)

// Server exposes the parameter declaration surface of one pipeline
type Server struct {
	registry *params.Registry
	pipeline string
}

func NewServer(registry *params.Registry, pipeline string) *Server {
	return &Server{registry: registry, pipeline: pipeline}
}

// Handler returns the router wrapped with request logging to out and panic recovery
func (server *Server) Handler(out io.Writer) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/_status", server.handleHealthcheck).Methods("GET")
	router.HandleFunc("/parameters", server.handleParameters).Methods("GET")
	router.HandleFunc("/parameters/{name}", server.handleParameter).Methods("GET")
	router.HandleFunc("/sections", server.handleSections).Methods("GET")
	router.HandleFunc("/command", server.handleCommand).Methods("POST")

	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(logrus.StandardLogger()))
	return recovery(handlers.LoggingHandler(out, router))
}

// ListenAndServe serves the API on addr until it fails
func (server *Server) ListenAndServe(addr string, out io.Writer) error {
	httpServer := &http.Server{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Handler:      server.Handler(out),
	}
	logrus.Infof("%s parameter server serving at %s", server.pipeline, httpServer.Addr)
	return httpServer.ListenAndServe()
}

func (server *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Healthy")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("failed to write response: %v", err)
	}
}
