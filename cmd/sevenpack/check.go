package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/almarkwork/sevenpack/internal/archive"
	"github.com/almarkwork/sevenpack/internal/profile"
)

var checkCommand = &cli.Command{
	Name:  "check",
	Usage: "Validate a compression profile file",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "profile",
			UsageText: "The profile file to validate",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		profileFilename := command.StringArg("profile")
		if profileFilename == "" {
			return fmt.Errorf("no profile file provided")
		}

		data, err := os.ReadFile(profileFilename)
		if err != nil {
			return fmt.Errorf("failed to read profile file '%s': %w", profileFilename, err)
		}

		logger = logger.With(zap.String("profile_filename", profileFilename))
		logger.Debug("validating profile file")

		p, err := profile.Parse(data)
		if err != nil {
			fmt.Println(formatValidationError(err))
			return fmt.Errorf("profile file '%s' is invalid", profileFilename)
		}

		cfg, err := p.Build()
		if err != nil {
			var invalid *archive.InvalidConfigError
			if errors.As(err, &invalid) {
				fmt.Printf("profile file has an invalid setting: %v\n", invalid)
			}
			return fmt.Errorf("profile file '%s' is invalid", profileFilename)
		}

		fmt.Printf("✓ Profile file '%s' is valid (%s archive, %s method)\n",
			profileFilename, cfg.Format(), cfg.Method())
		return nil
	},
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("profile file has %d validation error(s):", len(validationErrs)))
		for _, fe := range validationErrs {
			sb.WriteString(fmt.Sprintf("\n  • %s: failed '%s' validation", fe.Namespace(), fe.Tag()))
			if fe.Param() != "" {
				sb.WriteString(fmt.Sprintf(" (param: %s)", fe.Param()))
			}
		}
		return errors.New(sb.String())
	}
	return err
}
