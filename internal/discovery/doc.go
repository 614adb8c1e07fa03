// Package discovery lists the candidate checkout directories directly beneath a
// search path and detects the marker file that opts a directory out of scanning.
package discovery
