package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jwulff/bplog-go/internal/analytics"
	"github.com/jwulff/bplog-go/internal/api"
	"github.com/jwulff/bplog-go/internal/config"
	"github.com/jwulff/bplog-go/internal/reading"
	"github.com/jwulff/bplog-go/internal/render"
	"github.com/jwulff/bplog-go/internal/storage"
	"github.com/jwulff/bplog-go/internal/tracker"
)

// Chart size for the trends command.
const (
	chartWidth  = 60
	chartHeight = 12
)

type app struct {
	tracker  *tracker.Tracker
	out      io.Writer
	profile  termenv.Profile
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
}

// run executes one command and returns the process exit code.
func (a *app) run(ctx context.Context, command string, args []string) int {
	var err error
	switch command {
	case "add":
		err = a.add(ctx, args)
	case "edit":
		err = a.edit(ctx, args)
	case "list":
		err = a.list(ctx, args)
	case "trends":
		err = a.trends(ctx, args)
	case "delete":
		err = a.delete(ctx, args)
	case "clear":
		err = a.clear(ctx, args)
	case "export":
		err = a.export(ctx, args)
	case "import":
		err = a.importFile(ctx, args)
	case "settings":
		err = a.settings(ctx, args)
	case "serve":
		err = a.serve(ctx)
	default:
		fmt.Fprintf(a.out, "Unknown command: %s\n", command)
		fmt.Fprintln(a.out, "Run 'bplog help' for usage.")
		return 2
	}

	if err != nil {
		fmt.Fprintf(a.out, "Error: %s\n", describe(err))
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

// usageError is a command line the command cannot interpret.
type usageError string

func (e usageError) Error() string {
	return string(e)
}

// isUsageError reports whether err came from a malformed command line rather
// than from the data or storage. Such errors exit with status 2.
func isUsageError(err error) bool {
	var uerr usageError
	return errors.As(err, &uerr) || errors.Is(err, analytics.ErrUnknownRange)
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	if storage.IsUnavailable(err) {
		return fmt.Sprintf("%v (storage unavailable, try again)", err)
	}
	return err.Error()
}

// takenAtLayout is the -at flag format, read in the tracker's location.
const takenAtLayout = "2006-01-02 15:04"

// readingFlags registers the flags shared by add and edit, returning the
// input they fill.
func (a *app) readingFlags(fs *flag.FlagSet) *reading.Input {
	in := &reading.Input{}
	fs.Func("pulse", "pulse in bpm (omit if not measured)", func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%q is not a whole number", s)
		}
		in.Pulse = &v
		return nil
	})
	fs.StringVar(&in.Notes, "notes", "", "free-text notes")
	fs.StringVar(&in.Category, "category", "", "label such as morning or after_meds")
	fs.Func("at", "when the reading was taken, as \"YYYY-MM-DD HH:MM\" (default now)", func(s string) error {
		at, err := time.ParseInLocation(takenAtLayout, s, a.tracker.Location())
		if err != nil {
			return fmt.Errorf("%q is not a YYYY-MM-DD HH:MM time", s)
		}
		in.TakenAt = &at
		return nil
	})
	return in
}

// fillValues parses the systolic and diastolic positional arguments into in.
func fillValues(in *reading.Input, systolic, diastolic string) error {
	var err error
	if in.Systolic, err = parseOptionalInt(systolic); err != nil {
		return fmt.Errorf("systolic: %w", err)
	}
	if in.Diastolic, err = parseOptionalInt(diastolic); err != nil {
		return fmt.Errorf("diastolic: %w", err)
	}
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(a.out)
	in := a.readingFlags(fs)

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return usageError(err.Error())
	}
	if len(positional) != 2 {
		return usageError("usage: bplog add <systolic> <diastolic> [-pulse N] [-notes TEXT] [-category NAME] [-at \"YYYY-MM-DD HH:MM\"]")
	}
	if err := fillValues(in, positional[0], positional[1]); err != nil {
		return err
	}

	r, err := a.tracker.Record(ctx, *in)
	if err != nil {
		return err
	}
	a.printReading("Recorded", r)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(a.out)
	in := a.readingFlags(fs)

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return usageError(err.Error())
	}
	if len(positional) != 3 {
		return usageError("usage: bplog edit <id> <systolic> <diastolic> [-pulse N] [-notes TEXT] [-category NAME] [-at \"YYYY-MM-DD HH:MM\"]")
	}
	if err := fillValues(in, positional[1], positional[2]); err != nil {
		return err
	}

	r, err := a.tracker.Edit(ctx, positional[0], *in)
	if err != nil {
		return err
	}
	a.printReading("Updated", r)
	return nil
}

func (a *app) printReading(verb string, r reading.Reading) {
	fmt.Fprintf(a.out, "%s %d/%d", verb, r.Systolic, r.Diastolic)
	if r.Pulse != nil {
		fmt.Fprintf(a.out, " pulse %d", *r.Pulse)
	}
	fmt.Fprintf(a.out, " at %s - %s\n", r.Time(a.tracker.Location()).Format(takenAtLayout), r.Severity().Label())
	fmt.Fprintf(a.out, "ID: %s\n", r.ID)
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.out)
	limit := fs.Int("limit", tracker.DefaultHistoryLimit, "maximum readings to show (0 for all)")

	positional, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	rng, err := rangeArg(positional)
	if err != nil {
		return err
	}

	readings, err := a.tracker.History(ctx, rng, *limit)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		fmt.Fprintf(a.out, "No readings for %s.\n", rng.Label())
		return nil
	}

	now := a.tracker.Now()
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tDATE\tBP\tPULSE\tSTATUS\tCATEGORY\tNOTES\tID")
	for _, r := range readings {
		at := r.Time(a.tracker.Location())
		pulse := "-"
		if r.Pulse != nil {
			pulse = strconv.Itoa(*r.Pulse)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\t%s\t%s\t%s\n",
			humanize.RelTime(at, now, "ago", "from now"),
			at.Format("Jan 2 15:04"),
			r.Systolic, r.Diastolic,
			pulse,
			r.Severity().Label(),
			r.Category,
			r.Notes,
			r.ID,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%s shown (%s)\n", humanize.Comma(int64(len(readings))), rng.Label())
	return nil
}

func (a *app) trends(ctx context.Context, args []string) error {
	rng, err := rangeArg(args)
	if err != nil {
		return err
	}

	report, err := a.tracker.Trends(ctx, rng)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Trends: %s\n\n", rng.Label())
	if report.Summary.Empty() {
		fmt.Fprintln(a.out, "No readings in this period.")
		return nil
	}

	avg := report.Average
	fmt.Fprintf(a.out, "  Readings:  %s\n", humanize.Comma(int64(report.Summary.Count)))
	fmt.Fprintf(a.out, "  Average:   %d/%d mmHg - %s\n", avg.Systolic, avg.Diastolic, report.Summary.Severity().Label())
	if report.Summary.HasPulse() {
		fmt.Fprintf(a.out, "  Pulse:     %d bpm (%d of %d readings)\n", avg.Pulse, report.Summary.PulseCount, report.Summary.Count)
	} else {
		fmt.Fprintln(a.out, "  Pulse:     not recorded")
	}
	fmt.Fprintln(a.out)
	for i := len(reading.Severities) - 1; i >= 0; i-- {
		s := reading.Severities[i]
		fmt.Fprintf(a.out, "  %-22s %d\n", s.Label()+":", report.Severities[s])
	}
	fmt.Fprintln(a.out)

	return render.WriteTrends(a.out, report, chartWidth, chartHeight, a.profile)
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("usage: bplog delete <id>")
	}
	if err := a.tracker.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", args[0])
	return nil
}

func (a *app) clear(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(a.out)
	yes := fs.Bool("yes", false, "confirm deleting every reading")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("this deletes every reading and cannot be undone; re-run with -yes to confirm")
	}

	if err := a.tracker.DeleteAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All readings deleted.")
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	path := a.tracker.ExportFileName()
	if len(args) > 0 {
		path = args[0]
	}

	if path == "-" {
		return a.tracker.Export(ctx, a.out)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := a.tracker.Export(ctx, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(a.out, "Exported to %s\n", path)
	return nil
}

func (a *app) importFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("usage: bplog import <file>")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	report, err := a.tracker.Import(ctx, f)
	fmt.Fprintf(a.out, "Imported %d, skipped %d, rejected %d\n", report.Imported, report.Skipped, report.Rejected)
	for _, rowErr := range report.RowErrors {
		fmt.Fprintf(a.out, "  %v\n", rowErr)
	}
	return err
}

func (a *app) settings(ctx context.Context, args []string) error {
	switch {
	case len(args) == 0:
	case len(args) == 1 && args[0] == "reset":
		if err := a.tracker.ResetSettings(ctx); err != nil {
			return err
		}
	case len(args) == 2:
		if _, err := a.tracker.UpdateSetting(ctx, args[0], args[1]); err != nil {
			return err
		}
	default:
		return usageError("usage: bplog settings [key value | reset]")
	}

	s, err := a.tracker.Settings(ctx)
	if err != nil {
		return err
	}
	for _, key := range tracker.SettingKeys {
		value, _ := s.Get(key)
		fmt.Fprintf(a.out, "%-17s %s\n", key, value)
	}
	return nil
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(a.tracker, api.Options{
		Logger:   a.logger,
		Gatherer: a.registry,
	})
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("address", a.cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// parseInterleaved parses flags that may appear before, between or after
// positional arguments.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func rangeArg(args []string) (analytics.TimeRange, error) {
	if len(args) == 0 {
		return analytics.DefaultRange, nil
	}
	return analytics.ParseTimeRange(args[0])
}

// parseOptionalInt parses a form value; empty text means not entered.
func parseOptionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a whole number", s)
	}
	return &v, nil
}
