package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rksv-go/depverify/algorithm"
	"github.com/rksv-go/depverify/cluster"
	"github.com/rksv-go/depverify/depio"
	"github.com/rksv-go/depverify/internal/config"
	"github.com/rksv-go/depverify/internal/logging"
	"github.com/rksv-go/depverify/keystore"
	"github.com/rksv-go/depverify/statefile"
)

func newVerifyCmd() *cobra.Command {
	var (
		keystorePath string
		keyPath      string
		register     int
		par          int
		chunkSize    int
		usePassState bool
		continueLast bool
	)

	cmd := &cobra.Command{
		Use:   "verify [flags] DEP_FILE",
		Short: "Verify a Data Export Package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if p, _ := cmd.Flags().GetString("config"); p != "" {
				loaded, err := config.Load(p)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.LogLevel = level
			}
			if !cmd.Flags().Changed("par") {
				par = cfg.Par
			}
			if !cmd.Flags().Changed("chunksize") {
				chunkSize = cfg.ChunkSize
			}
			logging.Init(cfg.LogLevel)

			return runVerify(cmd, args[0], verifyOptions{
				keystorePath: keystorePath,
				keyPath:      keyPath,
				register:     register,
				par:          par,
				chunkSize:    chunkSize,
				usePassState: usePassState,
				continueLast: continueLast,
			})
		},
	}

	cmd.Flags().StringVar(&keystorePath, "keystore", "", "path to a JSON key store (required)")
	cmd.Flags().StringVar(&keyPath, "key", "", "path to a raw 32-byte turnover counter key")
	cmd.Flags().IntVar(&register, "register", -1, "cash register index to extend (-1 appends a new register)")
	cmd.Flags().IntVar(&par, "par", 1, "worker count")
	cmd.Flags().IntVar(&chunkSize, "chunksize", 0, "chunk size (0 = whole file)")
	cmd.Flags().BoolVar(&usePassState, "state", false, "read prior cluster state from stdin, write updated state to stdout")
	cmd.Flags().BoolVar(&continueLast, "continue", false, "with --state, extend the state's last register instead of appending one")
	cmd.MarkFlagRequired("keystore")

	return cmd
}

type verifyOptions struct {
	keystorePath string
	keyPath      string
	register     int
	par          int
	chunkSize    int
	usePassState bool
	continueLast bool
}

func runVerify(cmd *cobra.Command, depPath string, opts verifyOptions) error {
	keystoreData, err := os.ReadFile(opts.keystorePath)
	if err != nil {
		return fmt.Errorf("reading key store: %w", err)
	}
	store, err := keystore.LoadJSON(keystoreData)
	if err != nil {
		return fmt.Errorf("loading key store: %w", err)
	}

	var turnoverKey []byte
	if opts.keyPath != "" {
		turnoverKey, err = os.ReadFile(opts.keyPath)
		if err != nil {
			return fmt.Errorf("reading turnover key: %w", err)
		}
	}

	depData, err := os.ReadFile(depPath)
	if err != nil {
		return fmt.Errorf("reading DEP file: %w", err)
	}
	parser, err := depio.NewJSONParser(depData, opts.chunkSize)
	if err != nil {
		return fmt.Errorf("parsing DEP file: %w", err)
	}

	prior := cluster.New()
	registerIndex := opts.register
	if opts.usePassState {
		stateData, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading prior state: %w", err)
		}
		prior, err = statefile.Decode(stateData)
		if err != nil {
			return fmt.Errorf("decoding prior state: %w", err)
		}
		if opts.continueLast {
			if len(prior.Registers) == 0 {
				return fmt.Errorf("--continue given but prior state has no registers")
			}
			registerIndex = len(prior.Registers) - 1
		}
	}

	next, err := cluster.VerifyDEP(parser, store, algorithm.DefaultRegistry(), turnoverKey, prior, registerIndex, opts.par)
	if err != nil {
		return err
	}

	if opts.usePassState {
		out, err := statefile.Encode(next)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	return nil
}
