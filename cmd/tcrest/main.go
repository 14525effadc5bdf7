// Command tcrest calls the REST API of a build server from the command line.
//
//     tcrest --host ci.example.com --apikey $TOKEN get builds --query 'build.#.id'
//     tcrest --config ci.yaml send buildQueue '{"buildType":{"id":"Main"}}'
//
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ThalesGroup/tcrest"
	"github.com/ansel1/merry"
	"github.com/fatih/color"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitRequestFailure = 1
	ExitConfigError    = 3
	ExitUsageError     = 64
)

type exitCodeKey struct{}

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(stderr, "%s %v\n", red("Error:"), err)
		return exitCode(err)
	}
	return ExitSuccess
}

func exitCode(err error) int {
	if code, ok := merry.Value(err, exitCodeKey{}).(int); ok {
		return code
	}
	if merry.Is(err, tcrest.ErrConfiguration) {
		return ExitConfigError
	}
	return ExitRequestFailure
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return merry.WithValue(err, exitCodeKey{}, code)
}
