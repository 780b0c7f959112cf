package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sifan077/shorty/internal/client"
	flag "github.com/spf13/pflag"
)

const requestTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("shortlink", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiURL := fs.String("api", envOr("SHORTY_API_URL", client.DefaultBaseURL), "base URL of the shortener API")
	status := fs.Bool("status", false, "check API health instead of shortening")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: shortlink [--api URL] <long-url>")
		fmt.Fprintln(stderr, "       shortlink [--api URL] --status")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	api := client.New(*apiURL)

	if *status {
		st := client.CheckStatus(ctx, api)
		fmt.Fprintln(stdout, st.String())
		if st.Err != nil {
			fmt.Fprintf(stdout, "Error: %v\n", st.Err)
		}
		if !st.Healthy {
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	form := client.NewForm(api)
	form.LongURL = fs.Arg(0)
	form.Submit(ctx)
	if form.Error != "" {
		fmt.Fprintln(stderr, form.Error)
		return 1
	}
	fmt.Fprintln(stdout, form.ShortURL)
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
