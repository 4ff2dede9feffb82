package main

import (
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ordercart/internal/cart"
	"ordercart/internal/changelog"
	"ordercart/internal/menu"
	"ordercart/internal/restore"
	"ordercart/internal/snapshot"
	"ordercart/internal/state"
)

func (a *app) onClose(fn func() error) { a.closers = append(a.closers, fn) }

// persister builds the storage adapter selected by cfg.Backend.
func (a *app) persister() (cart.Persister, error) {
	cfg := a.cfg
	switch cfg.Backend {
	case "memory":
		return state.NewAdapter(state.NewInMemoryStore(), cfg.CartID), nil
	case "file":
		return snapshot.NewFileStore(cfg.DataDir, cfg.CartID), nil
	case "pebble":
		ps, err := state.NewPebbleStore(filepath.Join(cfg.DataDir, "pebble"))
		if err != nil {
			return nil, fmt.Errorf("init pebble: %w", err)
		}
		a.onClose(ps.Close)
		return state.NewAdapter(ps, cfg.CartID), nil
	case "badger":
		bs, err := state.NewBadgerStore(filepath.Join(cfg.DataDir, "badger"))
		if err != nil {
			return nil, fmt.Errorf("init badger: %w", err)
		}
		a.onClose(bs.Close)
		return state.NewAdapter(bs, cfg.CartID), nil
	case "redis":
		ttl, err := cfg.RedisTTL()
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		a.onClose(client.Close)
		return state.NewAdapter(state.NewRedisStore(client, ttl), cfg.CartID), nil
	case "kafka":
		return snapshot.NewKafkaStore(cfg.Kafka.Bootstrap, cfg.Kafka.SnapshotTopic, cfg.CartID), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// changelogWriter builds the event sink selected by cfg.Changelog.Sink; nil
// means no changelog.
func (a *app) changelogWriter() (changelog.Writer, error) {
	cfg := a.cfg
	file := func() (changelog.Writer, error) {
		fw, err := changelog.NewFileWriter(cfg.Changelog.Dir, cfg.CartID+".jsonl")
		if err != nil {
			return nil, fmt.Errorf("init changelog file: %w", err)
		}
		a.onClose(fw.Close)
		return fw, nil
	}
	switch cfg.Changelog.Sink {
	case "", "none":
		return nil, nil
	case "file":
		return file()
	case "kafka":
		return changelog.NewKafkaWriter(cfg.Kafka.Bootstrap, cfg.Kafka.ChangelogTopic), nil
	case "confluent":
		cw, err := changelog.NewConfluentWriter(cfg.Kafka.Bootstrap, cfg.Kafka.ChangelogTopic)
		if err != nil {
			return nil, fmt.Errorf("init confluent: %w", err)
		}
		a.onClose(func() error { cw.Close(); return nil })
		return cw, nil
	case "both":
		fw, err := file()
		if err != nil {
			return nil, err
		}
		return changelog.NewMultiWriter(fw, changelog.NewKafkaWriter(cfg.Kafka.Bootstrap, cfg.Kafka.ChangelogTopic)), nil
	}
	return nil, fmt.Errorf("unknown changelog sink %q", cfg.Changelog.Sink)
}

func (a *app) restorer() (*restore.Restorer, error) {
	p, err := a.persister()
	if err != nil {
		return nil, err
	}
	rates, err := a.cfg.CartRates()
	if err != nil {
		return nil, err
	}
	return restore.NewRestorer(a.reg.Persister(p), rates, a.reg, a.log), nil
}

// openCart reopens the configured cart with metrics and changelog wired in.
func (a *app) openCart() (*cart.Store, error) {
	r, err := a.restorer()
	if err != nil {
		return nil, err
	}
	notifiers := []cart.Notifier{a.reg}
	w, err := a.changelogWriter()
	if err != nil {
		return nil, err
	}
	if w != nil {
		notifiers = append(notifiers, changelog.Notifier(w))
	}
	st, rep, err := r.Restore(
		cart.WithCartID(a.cfg.CartID),
		cart.WithLogger(a.log),
		cart.WithNotifier(cart.Notifiers(notifiers...)),
	)
	if err != nil {
		return nil, err
	}
	if rep.Drifted {
		a.log.Info("recomputed stale cart totals", zap.String("cart", a.cfg.CartID))
	}
	return st, nil
}

func (a *app) catalog() (*menu.Catalog, error) {
	return menu.LoadCatalog(a.cfg.MenuPath)
}
