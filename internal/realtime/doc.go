// Package realtime is the coordination core of the chat push layer.
//
// It tracks which users are connected (Registry), classifies inbound message
// envelopes into exactly one delivery path (Classify), persists them through
// a storage Gateway and answers explicit fetch requests by broadcasting full
// collections to every connection (Dispatcher).
//
// Nothing in this package reports failures back to the sender. Storage and
// decoding problems are logged and handed to an Observer, and the caller
// always returns normally.
package realtime
