package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/form3tech-oss/pact-contracts/internal/app/configuration"
	"github.com/form3tech-oss/pact-contracts/internal/app/contract"
	"github.com/form3tech-oss/pact-contracts/internal/app/pactfile"
	"github.com/form3tech-oss/pact-contracts/internal/app/pattern"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	mode   string
	policy string
	part   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "pact-contracts",
		Short:         "Resolve and verify consumer driven contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.policy, "policy", "prefer-specific", "matcher conflict policy: prefer-specific, last-wins or reject")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin API, configured from the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Print the consumer or producer projection of every interaction in a contract file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolve(cmd, opts, args[0])
		},
	}
	resolveCmd.Flags().StringVar(&opts.mode, "mode", "consumer", "projection mode: consumer or producer")

	verifyCmd := &cobra.Command{
		Use:   "verify [contract file] [body file]",
		Short: "Check a JSON body against the producer projection of an interaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return verify(cmd, opts, args[0], args[1])
		},
	}
	verifyCmd.Flags().StringVar(&opts.part, "part", "", "part to verify: request, response, input or output")

	patternsCmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the built-in patterns with an example of each",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, kind := range pattern.Kinds() {
				m := pattern.MustResolve(kind)
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %-8s %s\n", kind, m.ValueType(), m.Example(string(kind)))
			}
		},
	}

	rootCmd.AddCommand(serveCmd, resolveCmd, verifyCmd, patternsCmd)
	return rootCmd
}

func serve() error {
	config, err := configuration.NewFromEnv()
	if err != nil {
		return err
	}
	if err := config.ConfigureLogging(); err != nil {
		return err
	}

	adminServer, err := configuration.ServeAdminAPI(config)
	if err != nil {
		return err
	}

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return adminServer.Shutdown(ctx)
}

func resolve(cmd *cobra.Command, opts *options, file string) error {
	mode, err := contract.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	resolver, err := configuration.Config{ConflictPolicy: opts.policy}.Resolver()
	if err != nil {
		return err
	}
	interactions, err := loadFile(file)
	if err != nil {
		return err
	}

	docs := make([]json.RawMessage, 0, len(interactions))
	for _, i := range interactions {
		c, err := resolver.Resolve(i, mode)
		if err != nil {
			return errors.Wrapf(err, "unable to resolve '%s'", i.Name())
		}
		doc, err := pactfile.Export(c)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	out, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func verify(cmd *cobra.Command, opts *options, file, bodyFile string) error {
	resolver, err := configuration.Config{ConflictPolicy: opts.policy}.Resolver()
	if err != nil {
		return err
	}
	interactions, err := loadFile(file)
	if err != nil {
		return err
	}
	if len(interactions) != 1 {
		return fmt.Errorf("%s holds %d interactions, expected one", file, len(interactions))
	}

	data, err := os.ReadFile(bodyFile)
	if err != nil {
		return errors.Wrap(err, "unable to read body")
	}
	var actual interface{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&actual); err != nil {
		return errors.Wrap(err, "unable to parse body")
	}

	c, err := resolver.Resolve(interactions[0], contract.Producer)
	if err != nil {
		return err
	}
	body, assertions, err := c.Part(opts.part)
	if err != nil {
		return err
	}

	violations := contract.Verify(body, assertions, actual)
	for _, v := range violations {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	if len(violations) > 0 {
		return fmt.Errorf("%d violations", len(violations))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

// loadFile reads a single interaction in JSON or YAML, or every interaction
// of a pact file.
func loadFile(file string) ([]*contract.Interaction, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read contract")
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		i, err := pactfile.LoadYAML(data)
		if err != nil {
			return nil, err
		}
		return []*contract.Interaction{i}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(err, "unable to parse contract")
	}
	_, hasInteractions := probe["interactions"]
	_, hasMessages := probe["messages"]
	if hasInteractions || hasMessages {
		log.Debugf("%s is a pact file", file)
		return pactfile.LoadPact(data)
	}

	i, err := pactfile.Load(data)
	if err != nil {
		return nil, err
	}
	return []*contract.Interaction{i}, nil
}
