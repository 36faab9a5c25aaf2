package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
)

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace all holdings with the contents of a CSV file" }
func (*importCmd) Usage() string {
	return `mystock import <file>

  Reads holdings from a CSV file with the header
  category,name,symbol,quantity,buy_price[,buy_date,currency,broker,notes]
  and replaces every stored holding. Nothing changes if any row is invalid.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	a, err := openApp(true)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	res, err := a.Transfer.Import(ctx, file)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Imported %d holding(s), replaced %d.\n", res.Inserted, res.Deleted)
	return subcommands.ExitSuccess
}

type exportCmd struct{}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write all holdings as CSV" }
func (*exportCmd) Usage() string {
	return `mystock export [file]

  Writes every holding as CSV to file, or to stdout when no file is given.
`
}

func (*exportCmd) SetFlags(*flag.FlagSet) {}

func (*exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	a, err := openApp(true)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	var w io.Writer = os.Stdout
	if f.NArg() == 1 {
		file, err := os.Create(f.Arg(0))
		if err != nil {
			return fail(err)
		}
		defer file.Close()
		w = file
	}

	n, err := a.Transfer.Export(ctx, w)
	if err != nil {
		return fail(err)
	}
	if w != os.Stdout {
		fmt.Fprintf(os.Stderr, "Exported %d holding(s) to %s\n", n, f.Arg(0))
	}
	return subcommands.ExitSuccess
}
