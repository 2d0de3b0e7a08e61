package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/lifetime/auto"
	"github.com/wippyai/lifetime/box"
	"github.com/wippyai/lifetime/resource"
)

func main() {
	var (
		script      = flag.String("ops", "", "Operations to run (comma-separated), e.g. borrow,dispose,return")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		lenient     = flag.Bool("lenient", false, "Ignore double returns instead of failing")
		reject      = flag.Bool("reject", false, "Fail dispose while borrowed instead of queueing it")
		verbose     = flag.Bool("v", false, "Log lifecycle events")
		list        = flag.Bool("list", false, "List operations and exit")
	)
	flag.Parse()

	if *list {
		for _, name := range opNames() {
			fmt.Printf("  %-13s %s\n", name, ops[name])
		}
		return
	}

	if *script == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: playground -ops borrow,dispose,return [-lenient] [-reject] [-v]")
		fmt.Fprintln(os.Stderr, "       playground -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       playground -list")
		os.Exit(1)
	}

	policy := selectPolicy(*lenient, *reject)

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(policy); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var logger *zap.Logger
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		logger = l
	}

	if err := run(context.Background(), os.Stdout, parseOps(*script), policy, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func selectPolicy(lenient, reject bool) box.Policy {
	policy := box.DefaultPolicy()
	if lenient {
		policy.StrictReturn = false
	}
	if reject {
		policy.PendingDropOnBorrow = false
	}
	return policy
}

// run executes a script, printing one line per operation and a leak report
// at the end. Failed operations are reported, not fatal; only unknown
// operations stop the script.
func run(ctx context.Context, w io.Writer, script []string, policy box.Policy, logger *zap.Logger) error {
	var observers []resource.Observer
	if logger != nil {
		observers = append(observers, resource.NewLogObserver(logger))
		auto.SetLogger(logger)
		defer auto.SetLogger(nil)
	}
	s := newSession(policy, observers...)

	fmt.Fprintf(w, "policy: strict_return=%v pending_drop=%v\n", policy.StrictReturn, policy.PendingDropOnBorrow)
	for _, op := range script {
		if _, known := ops[op]; !known {
			return fmt.Errorf("unknown op %q (see -list)", op)
		}
		msg, err := s.exec(ctx, op)
		s.drainEvents()
		if err != nil {
			fmt.Fprintf(w, "%-13s error  %v\n", op, err)
			continue
		}
		fmt.Fprintf(w, "%-13s ok     %s\n", op, msg)
	}
	fmt.Fprintf(w, "final: %s\n", s.status())

	if err := s.close(); err != nil {
		fmt.Fprintf(w, "%v\n", err)
		return nil
	}
	fmt.Fprintln(w, "no leaks")
	return nil
}
