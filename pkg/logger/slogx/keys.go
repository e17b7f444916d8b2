package slogx

// ErrorKey is the attribute key used by [Error].
const ErrorKey = "error"
