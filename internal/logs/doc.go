// Package logs reads the delisys log file for the "logs" command.
//
// Last returns the trailing lines of the file, Since resumes from a byte
// offset, and Follow polls for new lines until its context is cancelled.
// Only complete lines are returned so a line being written is never split.
package logs
