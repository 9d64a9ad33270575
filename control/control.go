// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package control serves an HTTP interface for driving a push server from
// tests.
//
// The following endpoints are served:
//
//	/enablenotifications                      resume delivering notifications
//	/disablenotifications                     drop notifications until re-enabled
//	/sendnotification?channel=CHAN&data=DATA  send DATA to every subscriber on CHAN
//	/status                                   report the state of the server
package control // import "mellium.im/pushd/control"

import (
	"fmt"
	"log"
	"net/http"
)

// Notifier is the part of a push server controlled over HTTP.
// It is implemented by *server.Server.
type Notifier interface {
	EnableNotifications()
	DisableNotifications()
	NotificationsEnabled() bool
	SendNotification(channel string, data []byte) int
	ConnCount() int
	HandshakeDoneCount() int
}

// Handler returns an http.Handler that controls n.
// If logger is nil requests are not logged.
func Handler(n Notifier, logger *log.Logger) http.Handler {
	h := handler{n: n, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/enablenotifications", h.enable)
	mux.HandleFunc("/disablenotifications", h.disable)
	mux.HandleFunc("/sendnotification", h.send)
	mux.HandleFunc("/status", h.status)
	return mux
}

type handler struct {
	n      Notifier
	logger *log.Logger
}

func (h handler) logf(format string, v ...interface{}) {
	if h.logger != nil {
		h.logger.Printf(format, v...)
	}
}

func (h handler) enable(w http.ResponseWriter, r *http.Request) {
	h.n.EnableNotifications()
	h.logf("notifications enabled")
	fmt.Fprintln(w, "Notifications enabled")
}

func (h handler) disable(w http.ResponseWriter, r *http.Request) {
	h.n.DisableNotifications()
	h.logf("notifications disabled")
	fmt.Fprintln(w, "Notifications disabled")
}

func (h handler) send(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	channel := q.Get("channel")
	if channel == "" {
		http.Error(w, "missing channel", http.StatusBadRequest)
		return
	}
	sent := h.n.SendNotification(channel, []byte(q.Get("data")))
	h.logf("sent notification on %q to %d connections", channel, sent)
	fmt.Fprintf(w, "Notification sent to %d connections\n", sent)
}

func (h handler) status(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "notifications=%t connections=%d subscribed=%d\n",
		h.n.NotificationsEnabled(), h.n.ConnCount(), h.n.HandshakeDoneCount())
}
