package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/example/toonretouch/internal/canvas"
	"github.com/example/toonretouch/internal/stubserver"
)

// serveStubCmd runs the development backend.
type serveStubCmd struct {
	listen string
	images []string
	out    io.Writer
	*root
	fs *pflag.FlagSet
}

func (s *serveStubCmd) FlagSet() *pflag.FlagSet {
	return s.fs
}

func parseServeStubCmd(args []string, r *root) (*serveStubCmd, error) {
	fs := pflag.NewFlagSet("serve-stub", pflag.ContinueOnError)
	s := &serveStubCmd{root: r.subcommand("serve-stub"), fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(s)
	fs.StringVarP(&s.listen, "listen", "l", ":8000", "address to listen on")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, &UsageError{of: s}
		}
		return nil, err
	}
	s.images = fs.Args()
	if len(s.images) == 0 {
		return nil, &UsageError{of: s}
	}
	return s, nil
}

// register loads every image into store and prints the assigned ids.
func (s *serveStubCmd) register(ctx context.Context, store *stubserver.Store) error {
	for _, path := range s.images {
		img, err := canvas.HTTPFetcher{}.Fetch(ctx, path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		id := store.Add(img)
		fmt.Fprintf(s.out, "%s\t%s\n", id, path)
	}
	return nil
}

func (s *serveStubCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := stubserver.NewStore()
	if err := s.register(ctx, store); err != nil {
		return err
	}

	log := logrus.WithField("component", "stubserver")
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           stubserver.NewServer(store, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.listen).Info("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
