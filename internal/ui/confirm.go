package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ConfirmDanger asks a yes/no question styled for destructive actions and
// reads the answer from in. Anything other than y/yes is a no.
func ConfirmDanger(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
