package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/mystock/internal/models"
)

// turnResponder runs one chat turn; satisfied by *agent.Agent
type turnResponder interface {
	Respond(ctx context.Context, sessionID, message string) (*models.ChatReply, error)
}

type chatCmd struct {
	message string
}

func (*chatCmd) Name() string     { return "chat" }
func (*chatCmd) Synopsis() string { return "ask the assistant about your portfolio" }
func (*chatCmd) Usage() string {
	return `mystock chat [-m <message>]

  Starts an interactive conversation with the portfolio assistant, which
  can look up holdings, prices and exchange rates. Type "exit" or send EOF
  to leave. With -m, asks a single question and exits.
`
}

func (c *chatCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.message, "m", "", "Ask a single question and exit")
}

func (c *chatCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(true)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	if !a.Gateway.Configured() {
		return fail(models.ErrAINotConfigured)
	}

	sess := a.Agent.Sessions().Create()
	defer a.Agent.Sessions().Delete(sess.ID)

	if c.message != "" {
		reply, err := a.Agent.Respond(ctx, sess.ID, c.message)
		if err != nil {
			return fail(err)
		}
		printMarkdown(reply.Content)
		return subcommands.ExitSuccess
	}

	fmt.Printf("Chatting with %s (%s). Type \"exit\" to leave.\n", a.Gateway.Provider(), a.Gateway.Model())
	if err := chatLoop(ctx, a.Agent, sess.ID, os.Stdin, os.Stdout, printMarkdown); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

// chatLoop reads one message per line until exit or EOF. Turn errors are
// reported and the loop continues, except an exhausted budget which ends it.
func chatLoop(ctx context.Context, agent turnResponder, sessionID string, in io.Reader, out io.Writer, render func(string)) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply, err := agent.Respond(ctx, sessionID, line)
		if errors.Is(err, models.ErrBudgetExceeded) {
			return err
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		render(reply.Content)
		fmt.Fprintf(out, "(turn $%.4f, session $%.4f)\n", reply.TurnCostUSD, reply.TotalCostUSD)
	}
}

type insightsCmd struct {
	asJSON bool
}

func (*insightsCmd) Name() string     { return "insights" }
func (*insightsCmd) Synopsis() string { return "generate an AI review of the portfolio" }
func (*insightsCmd) Usage() string {
	return `mystock insights [-json]

  Sends holdings and cached prices to the configured model and prints
  the findings grouped by severity.
`
}

func (c *insightsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print JSON instead of a report")
}

func (c *insightsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(true)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	// each CLI run is a fresh process, so there is no cached report to reuse
	report, err := a.Insights.Get(ctx, true)
	if err != nil {
		return fail(err)
	}
	if c.asJSON {
		return printJSON(report)
	}
	printMarkdown(insightsMarkdown(report))
	return subcommands.ExitSuccess
}
