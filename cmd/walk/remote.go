package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimewalk/internal/probe"
)

func newRemoteCmd() *cobra.Command {
	var (
		api     string
		key     string
		method  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "remote <url>",
		Short: "Ask a walk API server to walk a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(args[0])
			if !strings.Contains(raw, "://") {
				raw = "https://" + raw
			}
			body, _ := json.Marshal(map[string]any{
				"url":     raw,
				"method":  method,
				"timeout": timeout.Milliseconds(),
			})

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
				strings.TrimRight(api, "/")+"/walk", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			if key != "" {
				req.Header.Set("X-API-Key", key)
			}

			// The server bounds the walk itself; leave headroom for transit.
			client := &http.Client{Timeout: timeout + 10*time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("contacting API: %w", err)
			}
			defer resp.Body.Close()

			out, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(out)))
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}

			var res probe.Result
			if err := json.Unmarshal(out, &res); err == nil && !res.OK() {
				return errWalkFailed
			}
			return nil
		},
	}
	defAPI := os.Getenv("API_BASE")
	if defAPI == "" {
		defAPI = "http://localhost:8080"
	}
	cmd.Flags().StringVar(&api, "api", defAPI, "walk API base URL")
	cmd.Flags().StringVar(&key, "key", os.Getenv("WALK_API_KEY"), "API key")
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", time.Second, "request-level timeout")
	return cmd
}
