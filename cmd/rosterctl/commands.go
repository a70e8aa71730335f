package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/JonMunkholm/classroster/internal/core"
	"github.com/JonMunkholm/classroster/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errRejected is returned after a rejection report has been printed.
var errRejected = errors.New("input rejected")

type options struct {
	defaultScore float64
	labels       []string
	logLevel     string
	concurrency  int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "Check student rosters and project files",
		Long: `rosterctl runs the roster ingestion and project validation pipelines
on local files and prints what the server would answer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(opts.logLevel, "text")
		},
	}

	flags := root.PersistentFlags()
	flags.Float64Var(&opts.defaultScore, "default-score", core.DefaultAcademicScore, "score used for missing or invalid values")
	flags.StringSliceVar(&opts.labels, "labels", nil, "accepted behaviour labels (default: template labels)")
	flags.StringVar(&opts.logLevel, "log-level", "error", "log level: debug, info, warn, error")

	parse := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Ingest .xlsx or .csv rosters and print the accepted students",
		Long: `Ingests each spreadsheet and prints the students as JSON. With several
files the output is an object keyed by the paths as given. Rejected files are
reported on stderr with one line per issue.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts, args)
		},
	}
	parse.Flags().IntVarP(&opts.concurrency, "jobs", "j", runtime.NumCPU(), "files decoded in parallel")

	check := &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a project JSON file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args[0])
		},
	}

	root.AddCommand(parse, check)
	return root
}

func (o *options) service() *core.Service {
	return core.NewService(core.ServiceConfig{
		DefaultScore:   o.defaultScore,
		BehaviorLabels: o.labels,
		MaxConcurrent:  max(o.concurrency, 1),
	})
}

type parseResult struct {
	roster *core.Roster
	err    error
}

func runParse(cmd *cobra.Command, opts *options, files []string) error {
	svc := opts.service()
	results := make([]parseResult, len(files))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(opts.concurrency, 1))
	for i, path := range files {
		g.Go(func() error {
			roster, err := parseFile(ctx, svc, path)
			var rej *core.Error
			if err != nil && !errors.As(err, &rej) {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = parseResult{roster: roster, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	accepted := make(map[string][]core.Student, len(files))
	rejected := false
	for i, res := range results {
		if res.err != nil {
			rejected = true
			report(cmd.ErrOrStderr(), files[i], res.err)
			continue
		}
		accepted[files[i]] = res.roster.Students
		for _, is := range res.roster.Issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: warning: %s\n", files[i], is)
		}
	}

	var out any = accepted
	if len(files) == 1 {
		if rejected {
			return errRejected
		}
		out = results[0].roster.Students
	}
	if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if rejected {
		return errRejected
	}
	return nil
}

func parseFile(ctx context.Context, svc *core.Service, path string) (*core.Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		logging.FromContext(ctx).Debug("parsing roster", "file", path, "size", humanize.IBytes(uint64(info.Size())))
	}
	return svc.ParseRoster(ctx, filepath.Base(path), f)
}

func runCheck(cmd *cobra.Command, opts *options, path string) error {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	snap, err := opts.service().CheckProject(body)
	if err != nil {
		report(cmd.ErrOrStderr(), path, err)
		return errRejected
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %s students, %s groups\n",
		path, humanize.Comma(int64(len(snap.Students))), humanize.Comma(int64(len(snap.Groups))))
	return nil
}

// report prints a rejection with its user message and one line per issue.
func report(w io.Writer, name string, err error) {
	fmt.Fprintf(w, "%s: %s\n", name, core.FormatUserError(err))
	fmt.Fprintf(w, "  %s: %s\n", core.KindOf(err), err)
	for _, is := range core.IssuesOf(err) {
		fmt.Fprintf(w, "    %s\n", is)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
