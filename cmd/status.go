package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statusAddr string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue and scheduler status of the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := daemonGet(defaultAddr(statusAddr), "/discovery/status")
		if err != nil {
			return err
		}

		var pretty map[string]any
		if err := json.Unmarshal(body, &pretty); err != nil {
			return eris.Wrap(err, "decode status response")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pretty)
	},
}

func daemonGet(addr, path string) ([]byte, error) {
	resp, err := http.Get(addr + path)
	if err != nil {
		return nil, eris.Wrapf(err, "reach daemon at %s", addr)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read daemon response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("daemon returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "", "daemon address (default http://localhost:<config port>)")
	rootCmd.AddCommand(statusCmd)
}

// defaultAddr resolves the daemon address from the flag or config port.
func defaultAddr(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
}
