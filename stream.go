package main

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler pushes bot state to the client. Commands sent back are only
// accepted from admin operators, or from anyone when authentication is off in debug mode.
func StreamHandler(w http.ResponseWriter, r *http.Request) {
	canDrive := ENV.DEBUG
	if claims, ok := operatorFrom(r.Context()); ok {
		canDrive = claims.Admin
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}

	ENV.Conductor.Serve(conn, canDrive)
}
