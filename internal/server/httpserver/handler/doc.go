// Package handler provides the HTTP request handlers for inkroom.
//
// It implements the health endpoints and the admin API. The WebSocket
// sync endpoint lives in wsserver and is mounted by the router, not
// here.
package handler
