// Package component provides the component tree that pointer and gesture
// events travel through.
//
// Behavior wrappers such as gesture recognizers sit in the tree like any
// other component and may nest arbitrarily:
//
//	swipe
//	└── drag
//	    └── button
//
// A wrapper marks itself by implementing Wrapper. FindActualTarget walks
// through wrappers to the first concrete component, which is what a
// recognizer applies visual or behavioral effects to.
package component
