package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/afero"

	"studentdb/internal/config"
	"studentdb/internal/database"
	"studentdb/internal/handler"
	"studentdb/internal/service"
	"studentdb/internal/store"
)

const usage = `Usage: studentdb [-config FILE] [-data FILE] [-quiet] [command]

Without a command the interactive menu is started.

Commands:
  list [-course C] [-name N] [-sort FIELD] [-desc] [-page P] [-limit L]
  report [-o FILE]        write the analytics report as YAML
  import FILE.csv         add the students in a CSV file
  export-db               copy the students to the configured SQL database
  export-xlsx FILE.xlsx   write the students to an Excel workbook

Options:
`

// errUsage marks command line mistakes, which exit with status 2.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("studentdb", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "YAML configuration file")
	dataFile := flags.String("data", "", "student data file (overrides the configuration)")
	quiet := flags.Bool("quiet", false, "suppress log output")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	log.SetPrefix("studentdb: ")
	log.SetOutput(stderr)
	if *quiet {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}

	st, err := store.OpenFile(cfg.DataFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading student data: %v\n", err)
		return 1
	}
	studentService := service.NewStudentService(st)

	if flags.NArg() == 0 {
		shell := handler.NewShell(studentService, stdin, stdout)
		shell.Welcome(st.IsNew(), st.Len())
		if err := shell.Run(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	cli := &app{cfg: cfg, store: st, studentService: studentService, stdout: stdout, stderr: stderr}
	err = cli.dispatch(flags.Arg(0), flags.Args()[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		flags.Usage()
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

type app struct {
	cfg            *config.Config
	store          *store.Store
	studentService *service.StudentService
	stdout         io.Writer
	stderr         io.Writer
}

func (a *app) dispatch(name string, args []string) error {
	switch name {
	case "list":
		return a.list(args)
	case "report":
		return a.report(args)
	case "import":
		return a.importCSV(args)
	case "export-db":
		return a.exportDB(args)
	case "export-xlsx":
		return a.exportXLSX(args)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, name)
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) parse(fs *flag.FlagSet, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() != positional {
		return fmt.Errorf("%w: %s takes %d argument(s), got %d", errUsage, fs.Name(), positional, fs.NArg())
	}
	return nil
}

func (a *app) list(args []string) error {
	fs := a.flagSet("list")
	var opts service.ListOptions
	fs.StringVar(&opts.Course, "course", "", "only students in this course")
	fs.StringVar(&opts.Name, "name", "", "only names containing this text")
	fs.StringVar(&opts.SortBy, "sort", "name", "sort field: name, roll_number, age, course or gpa")
	fs.Float64Var(&opts.GPAMin, "gpa-min", 0, "lowest GPA to include")
	fs.Float64Var(&opts.GPAMax, "gpa-max", 0, "highest GPA to include")
	fs.IntVar(&opts.Page, "page", 1, "page number")
	fs.IntVar(&opts.Limit, "limit", 0, "students per page (0 for all)")
	desc := fs.Bool("desc", false, "sort in descending order")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}
	if *desc {
		opts.SortOrder = "desc"
	}

	h := handler.NewStudentHandler(a.studentService, nil, a.stdout, handler.NewTheme(a.stdout))
	if err := h.List(opts); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func (a *app) report(args []string) error {
	fs := a.flagSet("report")
	output := fs.String("o", "", "write the report to this file instead of standard output")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}

	exportService := service.NewExportService(a.store, a.cfg.Export.BatchSize)
	if *output == "" {
		return exportService.ExportReport(a.stdout)
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := exportService.ExportReport(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Report written to %s\n", *output)
	return nil
}

func (a *app) importCSV(args []string) error {
	fs := a.flagSet("import")
	if err := a.parse(fs, args, 1); err != nil {
		return err
	}
	path := fs.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	importService := service.NewImportService(afero.NewOsFs(), a.store, a.cfg.Export.BatchSize)
	progress := handler.NewProgressHandler(importService, a.stdout, handler.NewTheme(a.stdout))
	return progress.Follow(ctx, path, func(ctx context.Context) error {
		return importService.ProcessCSV(ctx, path)
	})
}

func (a *app) exportDB(args []string) error {
	fs := a.flagSet("export-db")
	if err := a.parse(fs, args, 0); err != nil {
		return err
	}

	db, err := database.InitDB(a.cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	inserted, err := service.NewExportService(a.store, a.cfg.Export.BatchSize).ExportToDB(db)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Exported %d new students to the %s database.\n", inserted, a.cfg.Database.Driver)
	return nil
}

func (a *app) exportXLSX(args []string) error {
	fs := a.flagSet("export-xlsx")
	if err := a.parse(fs, args, 1); err != nil {
		return err
	}
	path := fs.Arg(0)

	if err := service.NewExportService(a.store, a.cfg.Export.BatchSize).ExportXLSX(path); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Exported %d students to %s\n", a.store.Len(), path)
	return nil
}
