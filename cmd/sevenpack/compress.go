package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/almarkwork/sevenpack/internal/archive"
	"github.com/almarkwork/sevenpack/internal/profile"
	"github.com/almarkwork/sevenpack/pkg/sevenpack"
)

var compressCommand = &cli.Command{
	Name:  "compress",
	Usage: "Compress files into an archive",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Path of the archive to create or update",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "Compression profile file (YAML)",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "7z",
			Usage: fmt.Sprintf("Archive format (%s)", strings.Join(archive.FormatNames(), ", ")),
		},
		&cli.UintFlag{
			Name:  "level",
			Usage: "Compression level (0-9)",
		},
		&cli.StringFlag{
			Name:  "method",
			Usage: fmt.Sprintf("Compression method (%s)", strings.Join(archive.MethodNames(), ", ")),
		},
		&cli.UintFlag{
			Name:  "dictionary-size",
			Usage: "Explicit dictionary size in bytes (0 uses the method default)",
		},
		&cli.BoolFlag{
			Name:  "solid",
			Usage: "Pack entries into a single solid block",
		},
		&cli.BoolFlag{
			Name:    "update",
			Aliases: []string{"u"},
			Usage:   "Allow updating an already-existing archive",
		},
		&cli.Uint64Flag{
			Name:  "volume-size",
			Usage: "Split the archive into volumes of this many bytes (0 disables splitting)",
		},
		&cli.BoolFlag{
			Name:  "password",
			Usage: "Prompt for an archive password",
		},
		&cli.BoolFlag{
			Name:  "encrypt-headers",
			Usage: "Encrypt archive metadata as well (needs a password)",
		},
	},
	ArgsUsage: "FILE...",
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		files := command.Args().Slice()
		if len(files) == 0 {
			return fmt.Errorf("no input files provided")
		}

		outPath := command.String("output")
		if outPath == "" {
			return fmt.Errorf("no output archive provided")
		}

		cfg, encryptHeaders, err := buildConfig(command)
		if err != nil {
			return err
		}

		if command.Bool("password") {
			password, err := promptPassword(ctx)
			if err != nil {
				return err
			}
			cfg.SetPasswordWithHeaders(password, encryptHeaders || command.Bool("encrypt-headers"))
		} else if command.Bool("encrypt-headers") {
			return fmt.Errorf("--encrypt-headers needs --password")
		}

		compressor := sevenpack.NewCompressorFromConfig(cfg,
			sevenpack.WithLogger(logger.Named("compressor")))

		logger.Info("compressing archive",
			zap.String("output", outPath),
			zap.String("format", cfg.Format().String()),
			zap.Int("files", len(files)))

		if err := compressor.Compress(files, outPath); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "✓ Archive '%s' written\n", outPath)
		return nil
	},
}

// buildConfig assembles the creator configuration from the profile file
// (when given) overridden by explicit flags. The second result is the
// profile's header-encryption intent, which only takes effect alongside a
// prompted password.
func buildConfig(command *cli.Command) (*archive.CreatorConfig, bool, error) {
	var (
		cfg            *archive.CreatorConfig
		encryptHeaders bool
	)

	if profilePath := command.String("profile"); profilePath != "" {
		data, err := os.ReadFile(profilePath)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read profile file: %w", err)
		}
		p, err := profile.Parse(data)
		if err != nil {
			return nil, false, err
		}
		cfg, err = p.Build()
		if err != nil {
			return nil, false, err
		}
		encryptHeaders = p.EncryptHeaders
	} else {
		format, ok := archive.ParseFormat(command.String("format"))
		if !ok {
			return nil, false, fmt.Errorf("unknown archive format %q", command.String("format"))
		}
		cfg = archive.NewCreatorConfig(format)
	}

	if command.IsSet("level") {
		cfg.SetLevel(archive.Level(command.Uint("level")))
	}
	if name := command.String("method"); name != "" {
		method, ok := archive.ParseMethod(name)
		if !ok {
			return nil, false, fmt.Errorf("unknown compression method %q", name)
		}
		if err := cfg.SetMethod(method); err != nil {
			return nil, false, err
		}
	}
	if command.IsSet("dictionary-size") {
		size, err := dictionarySizeValue(uint64(command.Uint("dictionary-size")))
		if err != nil {
			return nil, false, err
		}
		if err := cfg.SetDictionarySize(size); err != nil {
			return nil, false, err
		}
	}
	if command.IsSet("solid") {
		cfg.SetSolidMode(command.Bool("solid"))
	}
	if command.IsSet("update") {
		cfg.SetUpdateMode(command.Bool("update"))
	}
	if command.IsSet("volume-size") {
		cfg.SetVolumeSize(command.Uint64("volume-size"))
	}

	return cfg, encryptHeaders, nil
}

// dictionarySizeValue narrows the flag value to the 32-bit range dictionary
// sizes live in; anything larger would otherwise truncate into a small,
// possibly-legal size.
func dictionarySizeValue(size uint64) (uint32, error) {
	if size > math.MaxUint32 {
		return 0, fmt.Errorf("dictionary size %d is out of range", size)
	}
	return uint32(size), nil
}
