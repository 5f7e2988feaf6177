package ui

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

func (a *App) readLine() string {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	input, _ := a.reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func (a *App) promptYesNo(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N]: ", question)
	input := strings.ToLower(a.readLine())
	return input == "y" || input == "yes"
}

func (a *App) promptValue(label, current string) string {
	if current == "" {
		fmt.Fprintf(a.out, "  %s: ", label)
	} else {
		fmt.Fprintf(a.out, "  %s [%s]: ", label, current)
	}
	if input := a.readLine(); input != "" {
		return input
	}
	return current
}

// promptInt asks until the answer is empty or a whole number.
func (a *App) promptInt(label string, current int) int {
	for {
		value := a.promptValue(label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(a.out, "  Invalid number %q\n", value)
	}
}

func (a *App) promptChoice(label, current string, options []string) string {
	full := fmt.Sprintf("%s (%s)", label, strings.Join(options, ", "))
	for {
		value := strings.ToLower(a.promptValue(full, current))
		for _, o := range options {
			if value == o {
				return value
			}
		}
		fmt.Fprintf(a.out, "  Invalid value %q. Available: %s\n", value, strings.Join(options, ", "))
	}
}
