package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiGray  = "\x1b[90m"
)

const statusLabelWidth = 18

type checkState int

const (
	checkPassed checkState = iota
	checkFailed
	checkSkipped
)

func renderCheckLine(label string, state checkState, detail string, colorize bool) string {
	tag := "[OK]"
	color := ansiGreen
	switch state {
	case checkFailed:
		tag, color = "[FAIL]", ansiRed
	case checkSkipped:
		tag, color = "[SKIP]", ansiGray
	}
	line := fmt.Sprintf("  %-*s %s %s", statusLabelWidth, label+":", tag, detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
