// Package anki implements the card target client for an AnkiConnect
// compatible service running on a fixed local port. It owns the JSON action
// envelope, the cloze-vs-basic field shaping, and the discrimination between
// connectivity failures (service unreachable, worth queueing) and structural
// failures (service reached but rejected the request).
package anki
