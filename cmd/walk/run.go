package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimewalk/internal/probe"
)

func newRunCmd() *cobra.Command {
	var (
		method     string
		timeout    time.Duration
		dnsTimeout time.Duration
		caFile     string
	)
	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Walk a URL from this machine and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := probe.NewRequest(args[0], method, timeout.Milliseconds())
			if err != nil {
				return err
			}
			w := probe.NewWalker(cliLogger(), probe.NewBoundedResolver(dnsTimeout), probe.DefaultRequestTimeout)
			if caFile != "" {
				pool, err := loadRoots(caFile)
				if err != nil {
					return err
				}
				w.TLSConfig = &tls.Config{RootCAs: pool}
			}

			res := w.Walk(cmd.Context(), req)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.OK() {
				return errWalkFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", time.Second, "request-level timeout")
	cmd.Flags().DurationVar(&dnsTimeout, "dns-timeout", probe.DefaultDNSTimeout, "resolver ceiling")
	cmd.Flags().StringVar(&caFile, "insecure-ca", "", "PEM bundle trusted in place of the system roots")
	return cmd
}

func loadRoots(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}
