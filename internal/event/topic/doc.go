// Package topic provides hierarchical topic names for gesture events.
//
// Topics use dot-notation:
//
//	gesture.drag.start
//	gesture.drag.move
//	gesture.swipe
//
// Subscription patterns may use two wildcards:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	gesture.drag.*    matches gesture.drag.start, gesture.drag.end
//	gesture.**        matches every gesture topic
//	*.swipe           matches gesture.swipe
package topic
