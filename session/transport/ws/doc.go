// Package ws implements the frame transport over a websocket connection
// using github.com/gorilla/websocket. The dial carries the protocol's
// negotiation headers and requests the permessage-deflate extension; an
// optional proxy URL routes the outbound connection.
package ws
