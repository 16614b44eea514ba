package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/caarlos0/env/v6"

	"github.com/devkekops/paymentopt/internal/app/config"
	"github.com/devkekops/paymentopt/internal/app/loader"
	"github.com/devkekops/paymentopt/internal/app/logger"
	"github.com/devkekops/paymentopt/internal/app/optimizer"
	"github.com/devkekops/paymentopt/internal/app/server"
)

const usage = "usage: paymentopt [flags] <orders.json> <paymentmethods.json>\n       paymentopt -serve [flags]"

func newConfig() (config.Config, error) {
	cfg := config.Config{
		RunAddress:    "localhost:8081",
		ClientTimeout: 5,
		LogLevel:      "info",
		Workers:       runtime.NumCPU(),
	}
	err := env.Parse(&cfg)
	return cfg, err
}

// run optimizes one batch read from the two sources and prints "<method> <amount>" lines.
func run(ctx context.Context, cfg config.Config, ordersSource, methodsSource string, w io.Writer) error {
	batch, err := loader.New(cfg.ClientTimeout).Batch(ctx, ordersSource, methodsSource)
	if err != nil {
		return err
	}

	res, err := optimizer.Optimize(batch.Orders, batch.PaymentMethods)
	if err != nil {
		return err
	}
	for _, id := range res.Unpaid {
		logger.Logger.Warn().Str("order", id).Msg("no payment method can pay this order")
	}

	for _, e := range res.Entries() {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.MethodID, e.Amount.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	cfg, err := newConfig()
	if err != nil {
		log.Fatal(err)
		return
	}

	var serve bool
	flag.BoolVar(&serve, "serve", false, "run the HTTP API")
	flag.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "run address")
	flag.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "database URI")
	flag.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key for request signatures")
	flag.IntVar(&cfg.ClientTimeout, "t", cfg.ClientTimeout, "timeout in seconds for http(s) sources")
	flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	flag.IntVar(&cfg.Workers, "w", cfg.Workers, "batch workers")
	flag.Parse()

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatal(err)
		return
	}

	if serve {
		log.Fatal(server.Serve(&cfg))
		return
	}

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
	if err := run(context.Background(), cfg, flag.Arg(0), flag.Arg(1), os.Stdout); err != nil {
		logger.Logger.Error().Err(err).Msg("optimization failed")
		os.Exit(1)
	}
}
