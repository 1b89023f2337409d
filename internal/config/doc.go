// Package config loads recognizer thresholds and logging settings.
//
// Settings come from a TOML file and are overridden by environment
// variables:
//
//	# gesture.toml
//	[drag]
//	threshold = 5
//
//	[swipe]
//	min_distance = 30
//	max_time = 800       # milliseconds
//	progress = true
//
//	[logging]
//	level = "info"
//	format = "text"
//
// A missing file is not an error; recognizers keep their defaults.
//
// # Environment
//
//	GESTURE_DRAG_THRESHOLD      drag.threshold
//	GESTURE_MIN_SWIPE_DISTANCE  swipe.min_distance
//	GESTURE_MAX_SWIPE_TIME      swipe.max_time
//	GESTURE_LOG_LEVEL           logging.level
//
// # Applying
//
// Threshold values are kept as strings and handed to recognizers through
// their attribute setters, so a bad value in the file, in the environment
// or in a reloaded file is rejected the same way: the recognizer keeps its
// previous value and Apply reports the error.
//
// # Live reload
//
// Watch follows the file with fsnotify and reloads it, after a short
// debounce, whenever it is written, created or renamed into place.
package config
