package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/events"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the mascot on stdin/stdout",
	Long: `Read messages from stdin, one per line, and print display events as they
arrive. Saying goodbye (e.g. "bye", "さようなら") ends the session.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := loadApp(ctx, os.Stderr)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.start(); err != nil {
			return err
		}
		return runConsole(ctx, a.orch, a.bus, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

type subscriber interface {
	Subscribe(events.Handler) func()
}

type submitter interface {
	Submit(text string) (chat.Submission, error)
}

// runConsole feeds lines from in to orch and prints every event to out until
// an exit event, EOF on in, or ctx is done. Lines are submitted from the
// reader goroutine, so events published synchronously by Submit never wait
// on the printing loop.
func runConsole(ctx context.Context, orch submitter, bus subscriber, in io.Reader, out io.Writer) error {
	done := make(chan struct{})
	defer close(done)

	printed := make(chan chat.DisplayEvent, 16)
	unsubscribe := bus.Subscribe(func(e chat.DisplayEvent) {
		select {
		case printed <- e:
		case <-done:
		}
	})
	defer unsubscribe()

	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case <-done:
				return
			default:
			}
			if _, err := orch.Submit(scanner.Text()); err != nil && !errors.Is(err, chat.ErrEmptyInput) {
				readErr <- err
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			// Print what Submit already published before giving up.
			for {
				select {
				case e := <-printed:
					if printEvent(out, e) {
						return nil
					}
					continue
				default:
				}
				return err
			}
		case e := <-printed:
			if printEvent(out, e) {
				return nil
			}
		}
	}
}

// printEvent writes e to out and reports whether it ends the session.
func printEvent(out io.Writer, e chat.DisplayEvent) bool {
	switch e.Kind {
	case chat.EventExit:
		fmt.Fprintln(out, "またね！")
		return true
	case chat.EventError:
		fmt.Fprintf(out, "[エラー] %s\n", e.Payload)
	default:
		fmt.Fprintln(out, e.Payload)
	}
	return false
}
