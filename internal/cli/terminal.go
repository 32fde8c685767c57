package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/engine"
	"quiz-funnel/internal/interstitial"
)

var errInputClosed = errors.New("input closed before the quiz finished")

// Terminal renders engine snapshots as text and turns typed lines into
// engine events.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	handles  uint64
	prompted map[string]bool
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:       bufio.NewReader(in),
		out:      out,
		prompted: make(map[string]bool),
	}
}

// Mount never renders the markup; a terminal only reports that sponsored
// content would be shown.
func (t *Terminal) Mount(markup string) (interstitial.Handle, error) {
	n := atomic.AddUint64(&t.handles, 1)
	fmt.Fprintf(t.out, "  [sponsored content, %d bytes, not rendered in a terminal]\n", len(markup))
	return interstitial.Handle("term-" + strconv.FormatUint(n, 10)), nil
}

func (t *Terminal) Unmount(interstitial.Handle) error {
	return nil
}

// Play drives run from the first snapshot to a terminal state and returns
// the last snapshot seen. The run must already be started with its Updates
// channel passed in.
func (t *Terminal) Play(ctx context.Context, run *engine.Run, updates <-chan engine.Snapshot) (engine.Snapshot, error) {
	var last engine.Snapshot
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return last, engine.ErrClosed
			}
			last = snap
			done, err := t.step(run, snap)
			if err != nil || done {
				return last, err
			}
		}
	}
}

func (t *Terminal) step(run *engine.Run, snap engine.Snapshot) (bool, error) {
	switch snap.State {
	case engine.StateLoading:
		fmt.Fprintf(t.out, "Loading %s...\n", snap.Slug)
	case engine.StateSession:
		if snap.Selected != "" || snap.Session == nil {
			return false, nil
		}
		if !t.once(fmt.Sprintf("session/%d", snap.Index)) {
			return false, nil
		}
		return false, t.askSession(run, snap)
	case engine.StateAd:
		return false, t.showAd(run, snap)
	case engine.StateProcessing:
		if t.once("processing") {
			text := snap.ProcessingText
			if text == "" {
				text = "Processing your answers..."
			}
			fmt.Fprintln(t.out, text)
		}
	case engine.StateResult:
		if t.once("result") {
			fmt.Fprintln(t.out, snap.ResultText)
		}
		if snap.Redirect != nil {
			fmt.Fprintf(t.out, "Redirecting to %s in %ds\n", snap.Redirect.URL, snap.Redirect.Remaining)
			return false, nil
		}
		return t.settled(snap), nil
	case engine.StateRedirecting:
		if t.once("redirecting") && snap.Redirect != nil {
			fmt.Fprintf(t.out, "Open %s to continue\n", snap.Redirect.URL)
		}
		return t.settled(snap), nil
	case engine.StateError:
		msg := "This quiz is currently unavailable."
		code := domain.CodeInternal
		if snap.Error != nil {
			msg, code = snap.Error.Message, snap.Error.Code
		}
		fmt.Fprintln(t.out, msg)
		return true, domain.NewError(code, msg, nil)
	}
	return false, nil
}

// settled reports whether the submission outcome is known and prints it.
func (t *Terminal) settled(snap engine.Snapshot) bool {
	switch snap.Submission.Status {
	case engine.SubmissionPending:
		return false
	case engine.SubmissionFailed:
		fmt.Fprintf(t.out, "Your answers could not be saved: %s\n", snap.Submission.Error)
	case engine.SubmissionSucceeded:
		fmt.Fprintf(t.out, "Answers saved (response %s)\n", snap.Submission.ResponseID)
	}
	return true
}

func (t *Terminal) once(key string) bool {
	if t.prompted[key] {
		return false
	}
	t.prompted[key] = true
	return true
}

func (t *Terminal) askSession(run *engine.Run, snap engine.Snapshot) error {
	s := snap.Session
	fmt.Fprintf(t.out, "\n[%d/%d] %s\n", snap.Index+1, snap.Total, s.Title)
	if s.Description != "" {
		fmt.Fprintln(t.out, s.Description)
	}

	if s.Type == domain.SessionQuestion {
		for i, o := range s.Options {
			fmt.Fprintf(t.out, "  %d) %s\n", i+1, o)
		}
		for {
			line, err := t.prompt("Choose an option: ")
			if err != nil {
				return err
			}
			n, convErr := strconv.Atoi(line)
			if convErr != nil || n < 1 || n > len(s.Options) {
				fmt.Fprintf(t.out, "Enter a number between 1 and %d.\n", len(s.Options))
				continue
			}
			return run.SelectOption(s.Options[n-1])
		}
	}

	for {
		values := make(map[string]string)
		for _, f := range s.FormFields.Enabled() {
			line, err := t.prompt(f + ": ")
			if err != nil {
				return err
			}
			values[f] = line
		}
		if missing := s.MissingFields(values); len(missing) > 0 {
			fmt.Fprintf(t.out, "Required: %s\n", strings.Join(missing, ", "))
			continue
		}
		return run.SubmitForm(values)
	}
}

func (t *Terminal) showAd(run *engine.Run, snap engine.Snapshot) error {
	ad := snap.Ad
	if ad == nil {
		return nil
	}
	key := fmt.Sprintf("ad/%d/%t", snap.Index, ad.Final)
	if t.once(key + "/open") {
		label := "Advertisement"
		if ad.TestMode {
			label = "Advertisement (test)"
		}
		fmt.Fprintln(t.out, label)
		if ad.Message != "" {
			fmt.Fprintln(t.out, ad.Message)
		}
	}
	if !ad.Unlocked {
		fmt.Fprintf(t.out, "  continue in %ds\n", ad.Remaining)
		return nil
	}
	if !t.once(key + "/continue") {
		return nil
	}
	if _, err := t.prompt("Press Enter to continue "); err != nil {
		return err
	}
	return run.Continue()
}

func (t *Terminal) prompt(label string) (string, error) {
	fmt.Fprint(t.out, label)
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
