package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/garunski/conductor-console/pkg/console/client"
	"github.com/garunski/conductor-console/pkg/console/connections"
	"github.com/garunski/conductor-console/pkg/console/eventfeed"
	"github.com/garunski/conductor-console/pkg/console/events"
)

const defaultServer = "http://localhost:8081"

const usage = `usage: consolectl [-server URL] [-v] <command> [flags] [args]

commands:
  events       list events, newest first
  summary      count read and unread events
  read ID...   mark events read
  unread ID... mark events unread
  delete ID... delete events
  connections  list connections
  set-status   -kind KIND ID=STATUS...
  forget ID... delete connections
  ping ID      ping a Kubernetes connection
`

type cli struct {
	client *client.Client
	feed   *eventfeed.Feed
	out    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("consolectl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }

	serverURL := global.String("server", envOrDefault("CONSOLE_URL", defaultServer), "console base URL")
	verbose := global.Bool("v", false, "log requests to stderr")
	timeout := global.Duration("timeout", 30*time.Second, "request timeout")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	logger := logr.Discard()
	if *verbose {
		zapLog, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = zapr.NewLogger(zapLog)
	}

	c, err := client.New(*serverURL, client.WithLogger(logger), client.WithTimeout(*timeout))
	if err != nil {
		return err
	}
	app := &cli{client: c, feed: eventfeed.New(logger), out: stdout}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "events":
		return app.events(ctx, rest)
	case "summary":
		return app.summary(ctx)
	case "read":
		return app.setEventStatus(ctx, rest, events.StatusRead)
	case "unread":
		return app.setEventStatus(ctx, rest, events.StatusUnread)
	case "delete":
		return app.deleteEvents(ctx, rest)
	case "connections":
		return app.connections(ctx, rest)
	case "set-status":
		return app.setConnectionStatus(ctx, rest)
	case "forget":
		return app.forget(ctx, rest)
	case "ping":
		return app.ping(ctx, rest)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *cli) events(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	pages := fs.Int("pages", 1, "number of pages to load")
	pageSize := fs.Int("page-size", eventfeed.DefaultPageSize, "events per page")
	severity := fs.String("severity", "", "comma-separated severities")
	status := fs.String("status", "", "read or unread")
	search := fs.String("search", "", "search text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filters := eventfeed.Filters{"pagesize": *pageSize}
	if *severity != "" {
		filters["severity"] = strings.Split(*severity, ",")
	}
	if *status != "" {
		filters["status"] = *status
	}
	if *search != "" {
		filters["search"] = *search
	}

	if err := a.feed.LoadPage(ctx, a.client, 1, filters); err != nil {
		return err
	}
	for i := 1; i < *pages && a.feed.CurrentView().HasMore; i++ {
		if err := a.feed.LoadNextPage(ctx, a.client); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEVERITY\tSTATUS\tRESOURCE\tUPDATED\tDESCRIPTION")
	for _, r := range a.feed.Events() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Severity, r.Status, r.ResourceKey, r.UpdatedAt, r.Description)
	}
	return w.Flush()
}

func (a *cli) summary(ctx context.Context) error {
	counts, err := a.client.EventSummary(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "unread: %d\nread:   %d\ntotal:  %d\n", counts.Unread, counts.Read, counts.Total)
	return nil
}

func (a *cli) setEventStatus(ctx context.Context, ids []string, status events.Status) error {
	if len(ids) == 0 {
		return errors.New("at least one event id is required")
	}
	var errs []error
	for _, id := range ids {
		if err := a.feed.ChangeStatus(ctx, a.client, id, status); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(a.out, "%s %s\n", id, status)
	}
	return errors.Join(errs...)
}

func (a *cli) deleteEvents(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.New("at least one event id is required")
	}
	var errs []error
	for _, id := range ids {
		if err := a.feed.RemoveEvent(ctx, a.client, id); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(a.out, "%s deleted\n", id)
	}
	return errors.Join(errs...)
}

func (a *cli) connections(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("connections", flag.ContinueOnError)
	page := fs.Int("page", 0, "0-based page")
	pageSize := fs.Int("page-size", connections.DefaultPageSize, "connections per page")
	search := fs.String("search", "", "search text")
	order := fs.String("order", "", "sort order, e.g. \"name asc\"")
	kind := fs.String("kind", "", "connection kind")
	status := fs.String("status", "", "connection status")
	output := fs.String("o", "table", "output format: table or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := a.client.ListConnections(ctx, connections.ListOptions{
		Page:     *page,
		PageSize: *pageSize,
		Search:   *search,
		Order:    *order,
		Kind:     connections.Kind(*kind),
		Status:   connections.Status(*status),
	})
	if err != nil {
		return err
	}

	switch *output {
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tKIND\tSTATUS\tUPDATED")
		for _, c := range result.Connections {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Kind, c.Status, c.UpdatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(w, "\npage %d, %d of %d\n", result.Page, len(result.Connections), result.TotalCount)
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q", *output)
	}
}

func (a *cli) setConnectionStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-status", flag.ContinueOnError)
	kind := fs.String("kind", string(connections.KindKubernetes), "connection kind")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one ID=STATUS pair is required")
	}

	updates := make(map[string]connections.Status, fs.NArg())
	for _, pair := range fs.Args() {
		id, status, ok := strings.Cut(pair, "=")
		if !ok || id == "" || status == "" {
			return fmt.Errorf("invalid update %q, want ID=STATUS", pair)
		}
		updates[id] = connections.Status(status)
	}

	result, err := a.client.UpdateConnectionStatus(ctx, connections.Kind(*kind), updates)
	if err != nil {
		return err
	}
	for _, id := range result.Updated {
		fmt.Fprintf(a.out, "%s %s\n", id, updates[id])
	}
	for id, msg := range result.Errors {
		fmt.Fprintf(a.out, "%s failed: %s\n", id, msg)
	}
	return nil
}

func (a *cli) forget(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.New("at least one connection id is required")
	}
	if err := a.client.DeleteConnections(ctx, ids); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %d connection(s)\n", len(ids))
	return nil
}

func (a *cli) ping(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("ping takes exactly one connection id")
	}
	result, err := a.client.PingConnection(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s %s in %s\n", result.ConnectionID, result.Version, result.Platform, result.Latency)
	return nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
