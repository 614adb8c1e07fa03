// Package ui renders command lifecycle events for people reading the console.
//
// Structured telemetry keeps flowing through the executor's own logger; the
// console logger only translates events into short sentences when the console
// log format is selected.
package ui
