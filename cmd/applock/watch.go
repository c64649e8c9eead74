package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scandocs/applock/pkg/lock"
)

// stdinLifecycle adapts interactive commands into the engine's lifecycle
// event source, standing in for the host runtime's foreground/background
// notifications.
type stdinLifecycle struct {
	events chan lock.LifecycleEvent
	done   chan struct{}
}

func (s *stdinLifecycle) Subscribe(fn func(lock.LifecycleEvent)) (stop func()) {
	go func() {
		for {
			select {
			case ev := <-s.events:
				fn(ev)
			case <-s.done:
				return
			}
		}
	}()
	return func() { close(s.done) }
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Drive the engine interactively and print every state change",
	Long: `Simulate the app lifecycle against the live engine. Commands:

  bg         background the app
  fg         foreground the app
  suspend R  open a trusted-delegate suspension with reason R
  resume     close the suspension
  try S      attempt to unlock with secret S
  lock       force a re-lock
  quit       exit

Every emitted lock state is printed as it happens.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		states, cancel := machine.Subscribe()
		defer cancel()
		go func() {
			for st := range states {
				fmt.Printf("state: %s\n", describe(st))
			}
		}()

		source := &stdinLifecycle{
			events: make(chan lock.LifecycleEvent),
			done:   make(chan struct{}),
		}
		stop := machine.Bind(source)
		defer stop()

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("applock watch (bg/fg/suspend/resume/try/lock/quit)")
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}
			switch fields[0] {
			case "bg":
				source.events <- lock.Backgrounded
			case "fg":
				source.events <- lock.Foregrounded
			case "suspend":
				reason := "delegate"
				if len(fields) > 1 {
					reason = fields[1]
				}
				machine.Suspend(reason)
			case "resume":
				machine.Resume()
			case "try":
				if len(fields) < 2 {
					fmt.Println("usage: try SECRET")
					continue
				}
				fmt.Printf("unlock: %v\n", machine.AttemptUnlock(fields[1]))
			case "lock":
				machine.Lock()
			case "quit", "exit":
				return nil
			default:
				fmt.Printf("unknown command %q\n", fields[0])
			}
		}
	},
}
