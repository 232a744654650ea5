package main

import (
	"fiscalfeed/internal/app"
	"fiscalfeed/internal/config"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
)

const (
	ReturnOk = iota
	ReturnHelp
	ReturnError
)

var opts struct {
	Config   string `short:"c" long:"config" description:"Path to a JSON or YAML config file"`
	Addr     string `short:"a" long:"addr" description:"HTTP listen address, overrides the config file"`
	LogLevel string `short:"l" long:"log-level" description:"Log level: debug, info, warn, error"`
	Parser   string `short:"p" long:"parser" description:"Feed parser: regex or gofeed"`
}

func main() {
	p := flags.NewNamedParser("fiscalfeed", flags.HelpFlag)
	p.ShortDescription = "Fiscal news feed aggregator"
	p.AddGroup("Server", "Server arguments", &opts)

	if _, err := p.ParseArgs(os.Args[1:]); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			p.WriteHelp(os.Stdout)
			os.Exit(ReturnHelp)
		}
		log.Printf("FATAL: %v", err)
		os.Exit(ReturnError)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatalf("FATAL: could not load config: %v", err)
	}
	if opts.Addr != "" {
		cfg.Server.Address = opts.Addr
	}
	if opts.LogLevel != "" {
		cfg.Logger.Level = opts.LogLevel
	}
	if opts.Parser != "" {
		cfg.App.Parser = opts.Parser
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: could not start application: %v", err)
	}
	if err := application.Run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	os.Exit(ReturnOk)
}
