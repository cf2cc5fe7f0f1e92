// Command xformdump builds a transform hierarchy from a YAML scene, replays an
// optional script against it, and prints every node's world translation in
// dense (topological) order. With -watch it rebuilds whenever the scene or
// script file changes.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/phanxgames/xform"
	"github.com/phanxgames/xform/scene"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type flags struct {
	config    string
	scene     string
	script    string
	watch     bool
	dump      bool
	logLevel  string
	logFormat string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("xformdump", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "TOML manager config file")
	fs.StringVar(&f.scene, "scene", "", "YAML scene file (required)")
	fs.StringVar(&f.script, "script", "", "YAML script replayed after the scene is built")
	fs.BoolVar(&f.watch, "watch", false, "rebuild when the scene or script changes")
	fs.BoolVar(&f.dump, "dump", false, "print the full node table")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level")
	fs.StringVar(&f.logFormat, "log-format", "console", `log format: "json" or "console"`)
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.scene == "" {
		return f, errors.New("-scene is required")
	}
	return f, nil
}

func run(args []string, out io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	log, err := newLogger(f.logLevel, f.logFormat)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	defer log.Sync()

	if err := build(f, log, out); err != nil {
		if !f.watch {
			return err
		}
		log.Error("build failed", zap.Error(err))
	}
	if !f.watch {
		return nil
	}

	files := []string{f.scene}
	if f.script != "" {
		files = append(files, f.script)
	}
	w, err := scene.NewWatcher(files...)
	if err != nil {
		return errors.Wrap(err, "watch")
	}
	defer w.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	log.Info("watching", zap.Strings("files", files))
	for {
		select {
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			log.Info("reloading", zap.String("file", path))
			if err := build(f, log, out); err != nil {
				log.Error("build failed", zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case <-sig:
			return nil
		}
	}
}

// build creates a fresh manager from the files named in f and prints it.
func build(f flags, log *zap.Logger, out io.Writer) error {
	data, err := os.ReadFile(f.scene)
	if err != nil {
		return errors.Wrap(err, "read scene")
	}
	sc, err := scene.Parse(data)
	if err != nil {
		return err
	}

	cfg := xform.DefaultConfig()
	switch {
	case f.config != "":
		if cfg, err = xform.LoadConfig(f.config); err != nil {
			return err
		}
	case sc.Config != nil:
		cfg = *sc.Config
	}
	m := xform.NewManager[string](xform.WithConfig(cfg), xform.WithLogger(log))
	if err := sc.Build(m); err != nil {
		return err
	}

	if f.script != "" {
		data, err := os.ReadFile(f.script)
		if err != nil {
			return errors.Wrap(err, "read script")
		}
		s, err := scene.LoadScript(data)
		if err != nil {
			return err
		}
		report, err := s.Run(m)
		if err != nil {
			return err
		}
		for _, msg := range report.Failures {
			log.Warn("expectation failed", zap.String("detail", msg))
		}
		log.Info("script finished",
			zap.Int("steps", report.Executed),
			zap.Int("failures", len(report.Failures)))
	}

	printNodes(out, m, f.dump)
	return nil
}

func printNodes(out io.Writer, m *xform.Manager[string], dump bool) {
	for i, name := range m.All() {
		t := m.WorldTransformAccurate(i).Col(3)
		fmt.Fprintf(out, "%-24s depth=%-2d parent=%-16q world=(%g, %g, %g)\n",
			name, m.Depth(i), m.Parent(i), t[0], t[1], t[2])
	}
	if dump {
		fmt.Fprint(out, m.Dump())
	}
}

func newLogger(levelText, format string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelText)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
