// Package realtime is the WebSocket push transport.
//
// The Hub keeps connected clients in named channels ("rooms"). Each
// authenticated connection joins its own user channel (user:<id>) on
// connect and may subscribe to project channels (project:<id>) for projects
// it belongs to. Emit is fire-and-forget: it queues a message for the hub's
// Serve loop and never waits on a slow client.
//
// Client protocol (JSON text frames):
//
//	-> {"type":"subscribe","channel":"project:<id>"}
//	<- {"type":"subscribed","channel":"project:<id>"}
//	-> {"type":"unsubscribe","channel":"project:<id>"}
//	-> {"type":"ping"}
//	<- {"type":"pong"}
//	<- {"type":"notification:new","channel":"user:<id>","data":{...}}
package realtime
