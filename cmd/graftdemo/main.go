package main

import (
	"context"
	"fmt"
	"log"

	"github.com/sghaida/graft"
	"github.com/sghaida/graft/blueprint"
	"github.com/sghaida/graft/keys"
	"github.com/sghaida/graft/resolution"
	"github.com/sghaida/graft/rules"
)

// Capability keys for the demo graph. Declared once, used everywhere.
var (
	keyConfig   = keys.New("demo.Config")
	keyStore    = keys.New("demo.Store")
	keyCache    = keys.New("demo.Cache")
	keyNotifier = keys.New("demo.Notifier")
	keyService  = keys.New("demo.Service")
)

type Config struct {
	DSN string
}

type Store struct {
	DSN string
}

type Cache struct {
	Size int
}

type Notifier struct {
	Channel string
}

type Service struct {
	Store    *Store
	Cache    *Cache
	Notifier *Notifier
}

func demoRules() []rules.Rule {
	return []rules.Rule{
		rules.New("demo.NewStore", keyStore,
			func(_ context.Context, args blueprint.Args) (any, error) {
				cfg := args["cfg"].(*Config)
				return &Store{DSN: cfg.DSN}, nil
			},
			rules.WithParam("cfg", keyConfig),
		),
		rules.New("demo.NewCache", keyCache,
			func(_ context.Context, _ blueprint.Args) (any, error) {
				return &Cache{Size: 1024}, nil
			},
			rules.Async(),
		),
		rules.New("demo.NewMailNotifier", keyNotifier,
			func(_ context.Context, _ blueprint.Args) (any, error) {
				return &Notifier{Channel: "mail"}, nil
			},
		),
		rules.New("demo.NewChatNotifier", keyNotifier,
			func(_ context.Context, _ blueprint.Args) (any, error) {
				return &Notifier{Channel: "chat"}, nil
			},
		),
		rules.New("demo.NewService", keyService,
			func(_ context.Context, args blueprint.Args) (any, error) {
				return &Service{
					Store:    args["store"].(*Store),
					Cache:    args["cache"].(*Cache),
					Notifier: args["notifier"].(*Notifier),
				}, nil
			},
			rules.WithParam("store", keyStore),
			rules.WithParam("cache", keyCache),
			rules.WithParam("notifier", keyNotifier),
		),
	}
}

func main() {
	engine, err := graft.New(
		graft.WithName("demo"),
		graft.WithRules(demoRules()...),
		graft.WithDispatchLimit(4),
	)
	if err != nil {
		log.Fatalf("wiring: %v", err)
	}
	if err := engine.Add(&Config{DSN: "postgres://localhost/demo"}, keyConfig); err != nil {
		log.Fatalf("add config: %v", err)
	}

	ctx := context.Background()

	// select_first: the first registered Notifier rule wins.
	one, err := engine.GetOrCreateAsyncWith(ctx, keyService, resolution.Of(resolution.SelectFirst))
	if err != nil {
		log.Fatalf("get one: %v", err)
	}
	fmt.Printf("select_first -> notifier=%s store=%s\n",
		one.(*Service).Notifier.Channel, one.(*Service).Store.DSN)

	// exhaustive: one Service per Notifier candidate.
	all, err := engine.GetOrCreateAllAsyncWith(ctx, keyService, resolution.Of(resolution.Exhaustive))
	if err != nil {
		log.Fatalf("get all: %v", err)
	}
	for _, svc := range all {
		fmt.Printf("exhaustive  -> notifier=%s\n", svc.(*Service).Notifier.Channel)
	}

	// unique: two non-optional Notifier rules compete, so this fails.
	if _, err := engine.GetOrCreateAsyncWith(ctx, keyService, resolution.Of(resolution.Unique)); err != nil {
		fmt.Printf("unique      -> %v\n", err)
	}
}
