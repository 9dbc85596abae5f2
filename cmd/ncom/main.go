// Command ncom decodes, records and serves OxTS NCOM navigation packets.
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
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/ncom.report/internal/config"
	"github.com/banshee-data/ncom.report/internal/db"
	"github.com/banshee-data/ncom.report/internal/monitoring"
	"github.com/banshee-data/ncom.report/internal/version"
)

var (
	configFile = flag.String("config", "", "Path to a .json or .yaml configuration file")
	logFile    = flag.String("log-file", "", "Also write logs to this file, rotated by size")
	dbFile     = flag.String("db", "", "Path to the SQLite database file (default from config, else ncom.db)")
)

// app carries the settings shared by every subcommand.
type app struct {
	cfg    *config.Config
	dbPath string
	stdin  io.Reader
	stdout io.Writer
}

func main() {
	flag.Usage = func() { usage(flag.CommandLine.Output()) }
	flag.Parse()

	cfg := config.Empty()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	logPath := *logFile
	if logPath == "" {
		logPath = cfg.GetLogFile()
	}
	closer := monitoring.UseLogFile(monitoring.LogFileOptions{
		Path:       logPath,
		MaxSizeMB:  cfg.GetLogMaxSizeMB(),
		MaxBackups: cfg.GetLogMaxBackups(),
		Compress:   true,
	})
	defer closer.Close()

	dbPath := *dbFile
	if dbPath == "" {
		dbPath = cfg.GetDBPath()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, dbPath: dbPath, stdin: os.Stdin, stdout: os.Stdout}
	if err := a.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}
}

// run dispatches args[0] to its subcommand.
func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.stdout)
		return flag.ErrHelp
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "decode":
		return a.runDecode(ctx, rest)
	case "listen":
		return a.runListen(ctx, rest)
	case "replay":
		return a.runReplay(ctx, rest)
	case "serial":
		return a.runSerial(ctx, rest)
	case "plot":
		return a.runPlot(rest)
	case "migrate":
		return db.RunMigrateCommand(rest, a.dbPath, a.stdout)
	case "version":
		fmt.Fprintln(a.stdout, version.String())
		return nil
	case "help", "-h", "--help":
		usage(a.stdout)
		return nil
	default:
		usage(a.stdout)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage(out io.Writer) {
	fmt.Fprint(out, `Usage: ncom [global flags] <command> [flags] [args]

Commands:
  decode   Decode packets from files, stdin or -hex and print JSON lines
  listen   Receive packets over UDP, store them and serve the HTTP API
  replay   Replay packets from a pcap/pcapng capture
  serial   Read packets from an RS-232 port, store them and serve the HTTP API
  plot     Plot the ground track of a stored session to an image
  migrate  Manage database migrations (up, down, status, force, help)
  version  Print version information

Global flags:
  -config string    Path to a .json or .yaml configuration file
  -db string        Path to the SQLite database file
  -log-file string  Also write logs to this file, rotated by size

Run 'ncom <command> -h' for command flags.
`)
}
