// Command consentctl drives a consent session from the terminal. The visitor
// identifier is persisted in the configured identity store, so repeated runs
// act as the same visitor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"consentmgr/internal/consent/client"
	"consentmgr/internal/consent/models"
	"consentmgr/internal/consent/session"
	"consentmgr/internal/identity"
	"consentmgr/internal/platform/config"
	"consentmgr/internal/platform/logger"
	id "consentmgr/pkg/domain"
	"consentmgr/pkg/platform/strings"
)

const usage = `usage: consentctl [-api URL] [-env FILE] [-v] <command> [flags]

commands:
  id                         print the visitor identifier
  forget                     delete the stored visitor identifier
  status                     list purposes and the visitor's decisions
  set -purpose N -allow=BOOL record one decision
  accept-all                 allow every purpose
  reject-all                 deny every purpose
  stats                      print aggregate statistics
  history                    print the visitor's decision history
  check -purposes 1,2        print stored decisions for specific purposes
  health                     check the consent backend
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		config.Exitf("consentctl: %v", err)
	}
}

// app holds what every command needs: the backend client and the identity
// manager over the configured store.
type app struct {
	backend  *client.Client
	identity *identity.Manager
	logger   *slog.Logger
	out      io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("consentctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	apiURL := global.String("api", "", "consent backend base URL (overrides CONSENT_API_URL)")
	envFile := global.String("env", "", "dotenv file to load before the environment")
	verbose := global.Bool("v", false, "log backend calls to stderr")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() == 0 {
		return errUsage
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	if *apiURL != "" {
		if err := os.Setenv("CONSENT_API_URL", *apiURL); err != nil {
			return err
		}
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logCfg := cfg.Log
	if !*verbose {
		logCfg.Level = "error"
	}
	log := logger.NewWithWriter(stderr, logCfg)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	a := &app{
		backend: client.New(cfg.API.BaseURL,
			client.WithTimeout(cfg.API.Timeout),
			client.WithLogger(log),
		),
		identity: identity.NewManager(store,
			identity.WithKey(cfg.Identity.Key),
			identity.WithLegacyKeys(cfg.Identity.LegacyKeys...),
			identity.WithTTL(cfg.Identity.TTL),
			identity.WithLogger(log),
		),
		logger: log,
		out:    stdout,
	}

	name, rest := global.Arg(0), global.Args()[1:]
	switch name {
	case "id":
		return a.printID(ctx)
	case "forget":
		return a.forget(ctx)
	case "status":
		return a.status(ctx)
	case "set":
		return a.set(ctx, rest, stderr)
	case "accept-all":
		return a.decideAll(ctx, true)
	case "reject-all":
		return a.decideAll(ctx, false)
	case "stats":
		return a.stats(ctx)
	case "history":
		return a.history(ctx)
	case "check":
		return a.check(ctx, rest, stderr)
	case "health":
		return a.health(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		return errUsage
	}
}

func (a *app) printID(ctx context.Context) error {
	v, err := a.identity.Resolve(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, v)
	return nil
}

func (a *app) forget(ctx context.Context) error {
	if err := a.identity.Forget(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "visitor identifier removed")
	return nil
}

// session loads a controller for the stored visitor. The returned controller
// is Ready.
func (a *app) session(ctx context.Context) (*session.Controller, error) {
	c := session.New(a.backend, a.identity, session.WithLogger(a.logger))
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *app) status(ctx context.Context) error {
	c, err := a.session(ctx)
	if err != nil {
		return err
	}
	c.Wait()
	printView(a.out, c.View())
	return nil
}

func (a *app) set(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(stderr)
	purpose := fs.String("purpose", "", "purpose id")
	allow := fs.Bool("allow", true, "allow (true) or deny (false)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	purposeID, err := id.ParsePurposeID(*purpose)
	if err != nil {
		return err
	}

	c, err := a.session(ctx)
	if err != nil {
		return err
	}
	if err := c.SetConsent(ctx, purposeID, *allow); err != nil {
		return err
	}
	c.Wait()
	fmt.Fprintf(a.out, "purpose %s: %s\n", purposeID, c.Status(purposeID))
	return nil
}

func (a *app) decideAll(ctx context.Context, allowed bool) error {
	c, err := a.session(ctx)
	if err != nil {
		return err
	}
	if allowed {
		err = c.AcceptAll(ctx)
	} else {
		err = c.RejectAll(ctx)
	}
	if err != nil {
		return err
	}
	c.Wait()
	printView(a.out, c.View())
	return nil
}

func (a *app) stats(ctx context.Context) error {
	s, err := a.backend.Stats(ctx)
	if err != nil {
		return err
	}
	printStats(a.out, &s)
	return nil
}

func (a *app) history(ctx context.Context) error {
	v, err := a.identity.Resolve(ctx)
	if err != nil {
		return err
	}
	h, err := a.backend.History(ctx, v.String())
	if err != nil {
		return err
	}
	printHistory(a.out, h)
	return nil
}

func (a *app) check(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	list := fs.String("purposes", "", "comma separated purpose ids")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	parts := strings.SplitList(*list)
	if len(parts) == 0 {
		return errUsage
	}
	ids := make([]id.PurposeID, 0, len(parts))
	for _, p := range parts {
		purposeID, err := id.ParsePurposeID(p)
		if err != nil {
			return err
		}
		ids = append(ids, purposeID)
	}

	v, err := a.identity.Resolve(ctx)
	if err != nil {
		return err
	}
	resp, err := a.backend.Check(ctx, models.CheckRequest{UserID: v.String(), PurposeIDs: ids})
	if err != nil {
		return err
	}
	printCheck(a.out, resp)
	return nil
}

func (a *app) health(ctx context.Context) error {
	h, err := a.backend.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s) %s\n", h.Status, a.backend.BaseURL(), h.Timestamp)
	return nil
}
