// Package lua runs Lua gesture hooks.
//
// A hook script defines global functions named after the gesture events it
// wants to see:
//
//	function on_drag_start(ev)
//	    gesture.log("drag " .. ev.direction .. " from " .. ev.start_x)
//	end
//
//	function on_swipe(ev)
//	    if ev.direction == "left" then
//	        gesture.set("swipe", "min-swipe-distance", 60)
//	    end
//	end
//
// Hook names are on_drag_start, on_drag_move, on_drag_end, on_swipe and
// on_swipe_progress. Each receives a table describing the event: type,
// name, pointer, direction, start_x, start_y, x, y, dx, dy, distance,
// elapsed_ms, velocity, dragging, was_dragging, clean, source and target.
//
// # Sandbox
//
// Scripts run with the base, table, string and math libraries only.
// dofile, loadfile, load and loadstring are removed, and io, os, debug and
// package are never opened. Each call runs under a timeout.
//
// # The gesture module
//
//	gesture.log(msg)                      log at info level
//	gesture.set(name, attribute, value)   change a recognizer attribute;
//	                                      returns true, or nil and a message
//
// Hooks implements event.Handler; subscribe it to gesture.** on the bus.
package lua
