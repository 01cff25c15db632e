// Command enginesim runs four-stroke cycle simulations from the
// terminal. A request comes from a JSON file (or stdin) or a named
// preset; subcommands turn one run into result JSON, a CSV trace, PNG
// plots, an interactive HTML report, Kafka events, or terminal
// playback, and saved runs can be listed back.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MichaelAyles/enginesim/internal/config"
	"github.com/MichaelAyles/enginesim/internal/engine"
	"github.com/MichaelAyles/enginesim/internal/render"
	"github.com/MichaelAyles/enginesim/internal/store"
	"github.com/MichaelAyles/enginesim/internal/stream"
	"github.com/MichaelAyles/enginesim/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "run":
		err = cmdRun(args)
	case "csv":
		err = cmdCSV(args)
	case "plot":
		err = cmdPlot(args)
	case "report":
		err = cmdReport(args)
	case "serve":
		err = cmdServe(args)
	case "tui":
		err = cmdTUI(args)
	case "history":
		err = cmdHistory(args)
	case "stream":
		err = cmdStream(args)
	case "presets":
		err = cmdPresets(args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: enginesim <command> [flags]

commands:
  run      simulate and write the full result JSON to stdout
  csv      simulate and export the cycle trace as CSV
  plot     simulate and save PNG plots of the cycle
  report   simulate and write an interactive HTML report
  serve    simulate and serve the HTML report over HTTP
  tui      simulate and play the cycle back in the terminal
  history  list runs saved with run -db
  stream   simulate and publish the run to Kafka
  presets  list available presets

run 'enginesim <command> -h' for the flags of one command.
`)
}

// inputFlags selects where the simulation request comes from. Shared by
// every subcommand that runs a cycle.
type inputFlags struct {
	input       string
	preset      string
	presetsPath string
}

func bindInputFlags(fs *flag.FlagSet) *inputFlags {
	f := &inputFlags{}
	fs.StringVar(&f.input, "input", "", `request JSON file ("-" or empty reads stdin)`)
	fs.StringVar(&f.preset, "preset", "", "run a named preset instead of a JSON request")
	fs.StringVar(&f.presetsPath, "presets", "", "YAML preset catalogue (built-in set when empty)")
	return f
}

// request resolves the flags into a simulation request. A bare file
// argument after the flags works like -input.
func (f *inputFlags) request(args []string) (engine.SimulationRequest, error) {
	if f.preset != "" {
		presets, err := loadPresets(f.presetsPath)
		if err != nil {
			return engine.SimulationRequest{}, err
		}
		p, err := config.Find(presets, f.preset)
		if err != nil {
			return engine.SimulationRequest{}, err
		}
		return p.Request(), nil
	}

	path := f.input
	if path == "" && len(args) > 0 {
		path = args[0]
	}

	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return engine.SimulationRequest{}, fmt.Errorf("reading input: %w", err)
	}

	var req engine.SimulationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return engine.SimulationRequest{}, fmt.Errorf("invalid input JSON: %w", err)
	}
	return req, nil
}

func loadPresets(path string) ([]config.Preset, error) {
	if path == "" {
		return config.Builtin(), nil
	}
	return config.Load(path)
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	in := bindInputFlags(fs)
	dbPath := fs.String("db", "", "also save the run to this SQLite database")
	fs.Parse(args)

	req, err := in.request(fs.Args())
	if err != nil {
		return err
	}
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		return err
	}

	if *dbPath != "" {
		s, err := store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Save(res); err != nil {
			return err
		}
	}

	out, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func cmdCSV(args []string) error {
	fs := flag.NewFlagSet("csv", flag.ExitOnError)
	in := bindInputFlags(fs)
	out := fs.String("o", "", "output file (stdout when empty)")
	fs.Parse(args)

	req, err := in.request(fs.Args())
	if err != nil {
		return err
	}
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}
	return render.WriteCSV(w, res.Cycle)
}

func cmdPlot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	in := bindInputFlags(fs)
	dir := fs.String("dir", "plots", "directory for the PNG files")
	fs.Parse(args)

	req, err := in.request(fs.Args())
	if err != nil {
		return err
	}
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		return err
	}
	if err := render.SaveCyclePlots(*dir, res.Cycle); err != nil {
		return err
	}
	fmt.Printf("plots written to %s\n", *dir)
	return nil
}

func cmdReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	in := bindInputFlags(fs)
	out := fs.String("o", "report.html", "output HTML file")
	fs.Parse(args)

	req, err := in.request(fs.Args())
	if err != nil {
		return err
	}
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer f.Close()
	rep := render.Report{Result: res}
	if err := rep.Render(f); err != nil {
		return err
	}
	fmt.Printf("report written to %s\n", *out)
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	in := bindInputFlags(fs)
	addr := fs.String("addr", ":8080", "listen address")
	fs.Parse(args)

	req, err := in.request(fs.Args())
	if err != nil {
		return err
	}
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		return err
	}

	rep := render.Report{Result: res}
	http.HandleFunc("/", rep.Handler)
	slog.Info("serving cycle report", "addr", *addr, "run_id", res.RunID)
	return http.ListenAndServe(*addr, nil)
}

func cmdTUI(args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	in := bindInputFlags(fs)
	fs.Parse(args)

	req, err := in.request(fs.Args())
	if err != nil {
		return err
	}
	return tui.Run(req)
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "enginesim.db", "SQLite database of saved runs")
	limit := fs.Int("n", 10, "number of runs to list")
	fs.Parse(args)

	s, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Recent(*limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tWHEN\tENGINE\tRPM\tLOAD %\tBRAKE kW\tPEAK bar\tEFF %")
	for _, r := range runs {
		fmt.Fprintf(tw, "%.8s\t%s\t%s %.0f/%.0f\t%.0f\t%.0f\t%.2f\t%.2f\t%.2f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.EngineType, r.Bore, r.Stroke,
			r.EngineSpeed, r.Load, r.BrakePower, r.PeakPressure, r.ThermalEfficiency)
	}
	return tw.Flush()
}

func cmdStream(args []string) error {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	in := bindInputFlags(fs)
	brokers := fs.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	topic := fs.String("topic", "engine.runs", "Kafka topic")
	sample := fs.Float64("sample", stream.DefaultSampleInterval, "cycle sample interval in crank degrees")
	fs.Parse(args)

	req, err := in.request(fs.Args())
	if err != nil {
		return err
	}
	res, err := engine.Run(context.Background(), req)
	if err != nil {
		return err
	}

	pub := stream.NewPublisher(strings.Split(*brokers, ","), *topic)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, res, *sample); err != nil {
		return err
	}
	slog.Info("run published", "run_id", res.RunID, "topic", *topic)
	return nil
}

func cmdPresets(args []string) error {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	path := fs.String("presets", "", "YAML preset catalogue (built-in set when empty)")
	fs.Parse(args)

	presets, err := loadPresets(*path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENGINE\tBORE/STROKE mm\tCR\tCYL\tRPM\tLOAD %\tDESCRIPTION")
	for _, p := range presets {
		engineType := p.EngineType
		if engineType == "" {
			engineType = string(engine.EngineGasoline)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.0f/%.0f\t%.1f\t%d\t%.0f\t%.0f\t%s\n",
			p.Name, engineType, p.Bore, p.Stroke, p.CompressionRatio,
			p.Cylinders, p.EngineSpeed, p.Load, p.Description)
	}
	return tw.Flush()
}
