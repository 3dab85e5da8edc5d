package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MarioArnt/azure-ad-jwt-lite/errors"
	"github.com/MarioArnt/azure-ad-jwt-lite/verifier"
)

func newVerifyCmd(a *app) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "verify [token|-]",
		Short: "Verify a token and print its claims",
		Long: `Verify a token against the discovery keys and print its claims as JSON.
Pass "-" or no argument to read the token from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			v, err := verifier.New(a.cfg.Verifier,
				verifier.WithLogger(a.log.WithComponent("verifier")),
				verifier.WithMetrics(a.metrics),
			)
			if err != nil {
				return err
			}

			var opts []verifier.Option
			if subject != "" {
				opts = append(opts, verifier.WithSubject(subject))
			}
			claims, err := v.Verify(cmd.Context(), token, opts...)
			if err != nil {
				if ve, ok := errors.AsVerificationError(err); ok {
					_ = writeJSON(a.errOut, ve.ToResponse())
				}
				return err
			}
			return writeJSON(a.out, claims)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "required sub claim")
	return cmd
}

func readToken(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
