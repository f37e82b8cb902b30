package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cvrag/internal/config"
	"cvrag/internal/ingest"
	"cvrag/internal/llm/openai"
	"cvrag/internal/log"
	"cvrag/internal/rag"
	"cvrag/internal/rag/answer"
	"cvrag/internal/rag/retriever"
	"cvrag/internal/server"
	"cvrag/internal/vectorstore"
	"cvrag/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd(os.Args[2:])
	case "ingest":
		ingestCmd(os.Args[2:])
	case "ask":
		askCmd(os.Args[2:])
	case "version":
		fmt.Println(version.String())
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("cvrag - grounded question answering over a CV corpus")
	fmt.Println("usage:")
	fmt.Println("  cvrag serve [--addr :8089] [--config cvrag.yaml]")
	fmt.Println("  cvrag ingest [--dir ./data] [--config cvrag.yaml]")
	fmt.Println("  cvrag ask [--k 3] [--config cvrag.yaml] \"<question>\"")
	fmt.Println("  cvrag version")
}

// deps is everything a command needs, built from configuration.
type deps struct {
	cfg   *config.Config
	lg    *log.Logger
	store *vectorstore.SQLiteStore
	svc   *rag.Service
	pipe  *ingest.Pipeline
}

func build(cfg *config.Config) (*deps, error) {
	lg := log.NewWithLevel(cfg.LogLevel)
	client := openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, time.Duration(cfg.OpenAI.TimeoutSecs)*time.Second)
	store, err := vectorstore.OpenSQLite(cfg.Store.Path, cfg.Store.Collection)
	if err != nil {
		return nil, err
	}
	ret := retriever.New(store, client, cfg.OpenAI.EmbeddingModel, retriever.Thresholds{
		High:   cfg.Retrieval.High,
		Medium: cfg.Retrieval.Medium,
	})
	gen := answer.NewGenerator(client, cfg.OpenAI.ChatModel)
	return &deps{
		cfg:   cfg,
		lg:    lg,
		store: store,
		svc:   rag.NewService(ret, gen, cfg.Retrieval.K),
		pipe:  ingest.New(client, store, cfg.OpenAI.EmbeddingModel),
	}, nil
}

func loadConfig(fs *flag.FlagSet) (*config.Config, error) {
	path := fs.Lookup("config").Value.String()
	return config.Load(path)
}

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.String("config", "cvrag.yaml", "configuration path")
	_ = fs.Parse(args)

	cfg, err := loadConfig(fs)
	if err != nil {
		fatal(err)
	}
	d, err := build(cfg)
	if err != nil {
		fatal(err)
	}
	defer d.store.Close()

	if n, err := d.store.Count(context.Background()); err == nil && n == 0 {
		d.lg.Warn("store.empty", "hint", "run 'cvrag ingest' before serving queries")
	}

	api := server.NewAPI(d.svc, d.pipe, server.Options{
		Questions: cfg.Server.Questions,
		Origins:   cfg.OriginList(),
		RateRPS:   cfg.Server.RateRPS,
		DataDir:   cfg.Ingest.Dir,
	}, d.lg)

	listen := cfg.Addr
	if *addr != "" {
		listen = *addr
	}
	if err := server.Run(listen, api.Router(), d.lg); err != nil {
		fatal(err)
	}
}

func ingestCmd(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	dir := fs.String("dir", "", "document directory (overrides config)")
	fs.String("config", "cvrag.yaml", "configuration path")
	_ = fs.Parse(args)

	cfg, err := loadConfig(fs)
	if err != nil {
		fatal(err)
	}
	d, err := build(cfg)
	if err != nil {
		fatal(err)
	}
	defer d.store.Close()

	target := cfg.Ingest.Dir
	if *dir != "" {
		target = *dir
	}
	count, err := d.pipe.Run(context.Background(), target)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Ingested %d CVs.\n", count)
}

func askCmd(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	k := fs.Int("k", 0, "neighbor count (overrides config)")
	fs.String("config", "cvrag.yaml", "configuration path")
	_ = fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "usage: cvrag ask \"<question>\"")
		os.Exit(1)
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fatal(err)
	}
	if *k > 0 {
		cfg.Retrieval.K = *k
	}
	d, err := build(cfg)
	if err != nil {
		fatal(err)
	}
	defer d.store.Close()

	resp, err := d.svc.Ask(context.Background(), question)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Answer: %s\n", resp.Answer)
	fmt.Printf("Confidence: %s\n", resp.Confidence)
	for _, src := range resp.Sources {
		fmt.Printf("Source: %s\n", src["source"])
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "cvrag: %v\n", err)
	os.Exit(1)
}
