package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Question identifies which decision a prompt is asking for.
type Question int

const (
	// DirectionQuestion asks which tree should be synced onto the other.
	DirectionQuestion Question = iota

	// ConfirmQuestion asks whether to go ahead with a previewed sync.
	ConfirmQuestion
)

// Prompter supplies answers to the session's questions. Prompt returns
// ctx.Err() if `ctx` is cancelled before an answer arrives.
type Prompter interface {
	Prompt(ctx context.Context, q Question, text string) (string, error)
}

type readResult struct {
	line string
	err  error
}

type stdinPrompter struct {
	in  *bufio.Reader
	out io.Writer

	// pending holds the read that's still outstanding from a cancelled
	// prompt. Its line answers the next prompt.
	pending chan readResult
}

// Stdin returns a Prompter that writes questions to `out` and reads one line
// per answer from `in`.
func Stdin(in io.Reader, out io.Writer) Prompter {
	return &stdinPrompter{in: bufio.NewReader(in), out: out}
}

func (p *stdinPrompter) Prompt(ctx context.Context, _ Question, text string) (string, error) {
	fmt.Fprint(p.out, text)

	// Reads can't be interrupted, so they happen in the background and at
	// most one is outstanding at a time.
	if p.pending == nil {
		result := make(chan readResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			result <- readResult{line, err}
		}()
		p.pending = result
	}

	var res readResult
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case res = <-p.pending:
		p.pending = nil
	}

	if res.err != nil && !(res.err == io.EOF && res.line != "") {
		// Make sure whatever's printed next starts on a fresh line.
		fmt.Fprintln(p.out)
		return "", res.err
	}
	return strings.TrimSpace(res.line), nil
}

// autoAnswers are the answers used when the user asked not to be prompted:
// sync the source onto the destination, and go ahead with it.
var autoAnswers = map[Question]string{
	DirectionQuestion: "s",
	ConfirmQuestion:   "y",
}

type autoPrompter struct {
	out io.Writer
}

// Auto returns a Prompter that never reads input. It prints each question
// followed by its fixed answer, so the output reads like an interactive run.
func Auto(out io.Writer) Prompter {
	return autoPrompter{out: out}
}

func (p autoPrompter) Prompt(_ context.Context, q Question, text string) (string, error) {
	answer := autoAnswers[q]
	fmt.Fprintln(p.out, text+answer)
	return answer, nil
}
