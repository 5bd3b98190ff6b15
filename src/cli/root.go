// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/brylex/sancus/src/internal/engine"
	"github.com/brylex/sancus/src/internal/helper/posix"
	x509certs "github.com/brylex/sancus/src/internal/x509/certs"
	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/logger"
)

var (
	// OperationPerformed is set once a resolution has started.
	OperationPerformed bool
	// OperationPerformedSuccessfully is set once a resolution has completed
	// and its output was written.
	OperationPerformedSuccessfully bool
)

var (
	// ErrInputFileRequired is returned when neither --host nor --file is given.
	ErrInputFileRequired = errors.New("cli: --host or --file is required")
	// ErrConflictingInput is returned when both --host and --file are given.
	ErrConflictingInput = errors.New("cli: --host and --file are mutually exclusive")
)

type flags struct {
	host        string
	port        int
	file        string
	dirs        []string
	truststores []string
	system      bool
	remote      bool
	format      string
	save        string
	config      string
	output      string
	noColor     bool
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	return NewCommand(version, log).ExecuteContext(ctx)
}

// NewCommand creates the root command. Every call returns a command with
// its own flag state.
func NewCommand(version string, log logger.Logger) *cobra.Command {
	if log == nil {
		log = logger.Discard()
	}
	f := &flags{}

	cmd := &cobra.Command{
		Use:   posix.GetExecutableName() + " (--host HOST | --file FILE) [flags]",
		Short: "X.509 certificate chain completion and trust marking",
		Long: `Builds the certificate chain presented by a TLS server or found in a file,
fills the missing issuers from trust stores, certificate directories and
authority information access locations, and marks the links accepted by
the trust stores.

Each link of the text listing reads [RESOLVER][T|U] DN, where RESOLVER
names the source of the certificate (MISSING for a gap) and T marks a
trusted link.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f, log)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.host, "host", "H", "", "resolve the chain presented by HOST")
	fl.IntVarP(&f.port, "port", "p", engine.DefaultPort, "port used with --host")
	fl.StringVarP(&f.file, "file", "f", "", "resolve the chain of a PEM, DER or PKCS#7 FILE")
	fl.StringArrayVarP(&f.dirs, "dir", "d", nil, "search DIR for issuer certificates (repeatable)")
	fl.StringArrayVarP(&f.truststores, "truststore", "t", nil, "use a PEM bundle as trust store, named after its file (repeatable)")
	fl.BoolVar(&f.system, "system", true, "use the host CA bundle as SYSTEM trust store")
	fl.BoolVar(&f.remote, "remote", true, "download issuers from authority information access locations")
	fl.StringVar(&f.format, "format", engine.DefaultFormat, "output format: "+strings.Join(engine.Formats, ", "))
	fl.StringVar(&f.save, "save", "", "write the certificates not presented by the server to SAVE as PEM")
	fl.StringVar(&f.config, "config", "", "configuration file (JSON or YAML; default $"+engine.ConfigFileEnv+")")
	fl.StringVarP(&f.output, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")
	fl.BoolVar(&f.noColor, "no-color", false, "disable coloured output")

	return cmd
}

func run(cmd *cobra.Command, f *flags, log logger.Logger) error {
	switch {
	case f.host == "" && f.file == "":
		return ErrInputFileRequired
	case f.host != "" && f.file != "":
		return ErrConflictingInput
	}

	config, err := engine.LoadConfig(f.config)
	if err != nil {
		return err
	}
	applyFlags(cmd, f, config)

	pipeline, err := engine.New(config, log)
	if err != nil {
		return err
	}

	input, err := readInput(f, config)
	if err != nil {
		return err
	}

	OperationPerformed = true
	if input.Host != "" {
		log.Printf("Resolving certificate chain of %s:%d", input.Host, input.Port)
	} else {
		log.Printf("Resolving certificate chain of %s", f.file)
	}

	res, err := pipeline.Run(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("resolving certificate chain: %w", err)
	}
	log.Printf("Resolution finished: %s", engine.Summary(res))

	if err := writeOutput(cmd, f, config, res); err != nil {
		return err
	}

	if f.save != "" {
		if err := save(f.save, res.Chain); err != nil {
			return err
		}
		log.Printf("Resolved certificates saved to %s", f.save)
	}

	OperationPerformedSuccessfully = true
	return nil
}

// applyFlags overrides config with the flags given on the command line.
func applyFlags(cmd *cobra.Command, f *flags, config *engine.Config) {
	fl := cmd.Flags()
	if fl.Changed("port") {
		config.Defaults.Port = f.port
	}
	if fl.Changed("format") {
		config.Defaults.Format = strings.ToLower(f.format)
	}
	if fl.Changed("system") {
		config.System = f.system
	}
	if fl.Changed("remote") {
		config.Remote = f.remote
	}
	for _, path := range f.truststores {
		config.TrustStores = append(config.TrustStores, engine.TrustStoreConfig{
			Name: engine.StoreName(path),
			Path: posix.ExpandHome(path),
		})
	}
	config.CertDirs = append(config.CertDirs, f.dirs...)
}

func readInput(f *flags, config *engine.Config) (engine.Input, error) {
	if f.host != "" {
		return engine.Input{Host: f.host, Port: config.Defaults.Port}, nil
	}

	data, err := os.ReadFile(posix.ExpandHome(f.file))
	if err != nil {
		return engine.Input{}, fmt.Errorf("reading input file: %w", err)
	}
	certs, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		return engine.Input{}, fmt.Errorf("decoding %s: %w", f.file, err)
	}
	return engine.Input{Certificates: certs}, nil
}

func writeOutput(cmd *cobra.Command, f *flags, config *engine.Config, res *engine.Result) error {
	var out strings.Builder
	if config.Defaults.Format == engine.FormatText {
		colors := newPalette(f.noColor || f.output != "")
		colors.printChain(&out, res.Chain)
	} else {
		rendered, err := engine.Render(res, config.Defaults.Format)
		if err != nil {
			return err
		}
		out.WriteString(rendered)
		if rendered != "" && !strings.HasSuffix(rendered, "\n") {
			out.WriteByte('\n')
		}
	}

	if f.output != "" {
		if err := os.WriteFile(f.output, []byte(out.String()), 0644); err != nil {
			return fmt.Errorf("writing to output file: %w", err)
		}
		return nil
	}
	_, err := io.WriteString(cmd.OutOrStdout(), out.String())
	return err
}

func save(path string, ch *x509chain.Chain) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving resolved certificates: %w", err)
	}
	if err := engine.WriteResolved(file, ch); err != nil {
		file.Close()
		return fmt.Errorf("saving resolved certificates: %w", err)
	}
	return file.Close()
}

// palette colours the [RESOLVER][T|U] listing.
type palette struct {
	resolved, missing  *color.Color
	trusted, untrusted *color.Color
}

func newPalette(disabled bool) palette {
	p := palette{
		resolved:  color.New(color.FgBlue),
		missing:   color.New(color.FgRed, color.Bold),
		trusted:   color.New(color.FgGreen),
		untrusted: color.New(color.FgRed),
	}
	if disabled {
		for _, c := range []*color.Color{p.resolved, p.missing, p.trusted, p.untrusted} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) printChain(w io.Writer, ch *x509chain.Chain) {
	for _, l := range ch.Links() {
		resolvedBy := p.resolved
		if l.IsPlaceholder() {
			resolvedBy = p.missing
		}
		trustFlag := p.untrusted
		if l.IsTrusted() {
			trustFlag = p.trusted
		}
		fmt.Fprintf(w, "[%s][%s] %s\n",
			resolvedBy.Sprintf("%-7s", l.ResolvedBy()),
			trustFlag.Sprint(engine.TrustFlag(l.IsTrusted())),
			l.Identity(),
		)
	}
}
