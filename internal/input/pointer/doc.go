// Package pointer defines the low-level pointer event stream that gesture
// recognizers consume.
//
// A pointer is one contact stream (mouse, single touch contact or pen)
// identified by an ID from its first Down until its Up, Cancel or Leave:
//
//	Down, Move, Move, ..., Up
//
// Events delivered a second time on behalf of a capturing recognizer carry a
// relay mark (see Event.Relayed). The original of a relayed event is marked
// forwarded. Neither is ever relayed again.
package pointer
