package session

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdinPrompter(t *testing.T) {
	ctx := context.Background()
	out := &bytes.Buffer{}
	p := Stdin(strings.NewReader(" d \ny"), out)

	answer, err := p.Prompt(ctx, DirectionQuestion, "Choose [s/d/T]: ")
	require.NoError(t, err)
	assert.Equal(t, "d", answer)

	// The final answer isn't newline terminated.
	answer, err = p.Prompt(ctx, ConfirmQuestion, "Do you want to proceed [y/N]: ")
	require.NoError(t, err)
	assert.Equal(t, "y", answer)

	assert.Equal(t, "Choose [s/d/T]: Do you want to proceed [y/N]: ", out.String())

	_, err = p.Prompt(ctx, ConfirmQuestion, "Again? ")
	assert.Equal(t, io.EOF, err)
}

func TestAutoPrompter(t *testing.T) {
	ctx := context.Background()
	out := &bytes.Buffer{}
	p := Auto(out)

	answer, err := p.Prompt(ctx, DirectionQuestion, "Choose [s/d/T]: ")
	require.NoError(t, err)
	assert.Equal(t, "s", answer)

	answer, err = p.Prompt(ctx, ConfirmQuestion, "Proceed [y/N]: ")
	require.NoError(t, err)
	assert.Equal(t, "y", answer)

	assert.Equal(t, "Choose [s/d/T]: s\nProceed [y/N]: y\n", out.String())
}

func TestStdinPrompterCancel(t *testing.T) {
	in, userInput := io.Pipe()
	defer in.Close()
	out := &bytes.Buffer{}
	p := Stdin(in, out)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := p.Prompt(ctx, DirectionQuestion, "Choose [s/d/T]: ")
		done <- err
	}()

	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Prompt didn't return after the context was cancelled")
	}
	assert.Equal(t, "Choose [s/d/T]: \n", out.String())

	// The line typed after the cancelled prompt answers the next one.
	go userInput.Write([]byte("d\n"))
	answer, err := p.Prompt(context.Background(), DirectionQuestion, "Choose [s/d/T]: ")
	require.NoError(t, err)
	assert.Equal(t, "d", answer)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ChoosingDirection", ChoosingDirection.String())
	assert.Equal(t, "Unknown", State(99).String())
	assert.Equal(t, "destination to source", DestinationToSource.String())
}
