package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	gojson "github.com/goccy/go-json"

	"github.com/hantyrram/stegdb"
)

// Exit codes.
const (
	exitOK         = 0
	exitDriver     = 1
	exitConnection = 2
	exitUsage      = 4
)

var (
	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
	dim   = color.New(color.Faint)
)

func printJSON(w io.Writer, v any) error {
	data, err := gojson.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func success(w io.Writer, format string, args ...any) {
	_, _ = green.Fprintf(w, "✓ "+format+"\n", args...)
}

func detail(w io.Writer, format string, args ...any) {
	_, _ = dim.Fprintf(w, "  "+format+"\n", args...)
}

// printError writes err in red and returns the process exit code for it.
func printError(w io.Writer, err error) int {
	_, _ = red.Fprintf(w, "✗ %v\n", err)

	var (
		ce *stegdb.ConnectionError
		de *stegdb.DriverError
		ue *usageError
	)
	switch {
	case errors.As(err, &ce):
		return exitConnection
	case errors.As(err, &de):
		return exitDriver
	case errors.As(err, &ue):
		return exitUsage
	default:
		return exitDriver
	}
}

// usageError reports bad command-line input.
type usageError struct {
	msg string
	err error
}

func (e *usageError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *usageError) Unwrap() error { return e.err }
