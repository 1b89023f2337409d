// Package surface is the host environment gesture recognizers attach to.
//
// A Surface owns a component tree. It routes pointer events to the
// component under the pointer (or to the component holding capture of the
// pointer) and bubbles them through its ancestors. It provides the
// exclusive-capture primitive and the scroll lock the arbiter drives, and
// forwards gesture events that bubble past the root to an event bus.
//
// TcellSource feeds a Surface from a terminal using tcell mouse reporting.
//
// A Surface is not safe for concurrent use; drive it from one goroutine,
// typically the terminal event loop.
package surface
