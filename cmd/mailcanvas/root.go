package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mailcanvas/mailcanvas/pkg/blocks"
	"github.com/mailcanvas/mailcanvas/pkg/crypto"
)

var (
	outFile string
	pretty  bool
)

func rootCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:           "mailcanvas",
		Short:         "Render and inspect email block documents",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pflags := cmd.PersistentFlags()
	pflags.StringVarP(&outFile, "out", "o", "", "Write the result to a file instead of stdout.")
	pflags.BoolVar(&pretty, "pretty", false, "Indent JSON output.")

	cmd.AddCommand(renderCmd())
	cmd.AddCommand(normalizeCmd())
	cmd.AddCommand(textCmd())
	cmd.AddCommand(inspectCmd())
	cmd.AddCommand(hashSecretCmd())

	return &cmd
}

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a block document to email HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			return writeOutput(cmd, []byte(blocks.Render(doc)))
		},
	}
}

func normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Print the canonical JSON form of a block document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			out, err := blocks.Serialize(doc)
			if err != nil {
				return fmt.Errorf("failed to serialize document: %w", err)
			}
			return writeJSON(cmd, []byte(out))
		},
	}
}

func textCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text [file|-]",
		Short: "Print the plain-text alternative of a block document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			text, err := blocks.PlainText(blocks.Render(doc))
			if err != nil {
				return err
			}
			return writeOutput(cmd, []byte(text))
		},
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "Count the elements of the rendered HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			stats, err := blocks.Inspect(blocks.Render(doc))
			if err != nil {
				return err
			}
			data, err := json.Marshal(stats)
			if err != nil {
				return fmt.Errorf("failed to encode stats: %w", err)
			}
			return writeJSON(cmd, data)
		},
	}
}

func hashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Hash a DEV_AUTH_SECRET value with bcrypt",
		Long:  "Hash a DEV_AUTH_SECRET value with bcrypt. Without an argument the secret is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read from stdin: %w", err)
				}
				secret = strings.TrimRight(string(data), "\r\n")
			}
			if secret == "" {
				return fmt.Errorf("secret must not be empty")
			}

			hash, err := crypto.HashSecret(secret)
			if err != nil {
				return err
			}
			return writeOutput(cmd, []byte(hash))
		},
	}
}

// readDocument loads the named file, or stdin for "-" and no argument
func readDocument(cmd *cobra.Command, args []string) ([]blocks.Block, error) {
	var data []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read file %q: %w", args[0], err)
		}
	}

	content := string(data)
	return blocks.ParseDocument(&content), nil
}

func writeJSON(cmd *cobra.Command, data []byte) error {
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return fmt.Errorf("failed to indent output: %w", err)
		}
		data = buf.Bytes()
	}
	return writeOutput(cmd, data)
}

func writeOutput(cmd *cobra.Command, data []byte) error {
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if outFile != "" {
		if err := os.WriteFile(outFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %q: %w", outFile, err)
		}
		return nil
	}
	_, err := cmd.OutOrStdout().Write(data)
	return err
}
