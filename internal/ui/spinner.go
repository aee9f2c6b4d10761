package ui

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// SmartSpinner draws on stderr and only when stderr is a terminal.
type SmartSpinner struct {
	spinner *spinner.Spinner
}

func NewSmartSpinner(initialMessage string) *SmartSpinner {
	s := spinner.New(
		spinner.CharSets[14],
		100*time.Millisecond,
		spinner.WithColor("cyan"),
		spinner.WithWriter(os.Stderr),
		spinner.WithSuffix(" "+initialMessage),
	)
	return &SmartSpinner{spinner: s}
}

func (s *SmartSpinner) Start() {
	s.spinner.Start()
}

func (s *SmartSpinner) Stop() {
	s.spinner.Stop()
}

func (s *SmartSpinner) UpdateMessage(msg string) {
	s.spinner.Suffix = " " + msg
}

// WithSpinnerAndDuration runs fn behind a spinner and reports how long it took.
func WithSpinnerAndDuration(message string, fn func() error) error {
	s := NewSmartSpinner(message)
	s.Start()

	start := time.Now()
	err := fn()
	duration := time.Since(start)
	s.Stop()

	if err != nil {
		PrintError(os.Stderr, fmt.Sprintf("%s: %v", message, err))
		return err
	}

	PrintDuration(os.Stderr, message, duration)
	return nil
}
