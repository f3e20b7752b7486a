package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var schedulerAddr string

var schedulerCmd = &cobra.Command{
	Use:       "scheduler [start|stop]",
	Short:     "Start or stop the daemon's discovery scheduler",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "stop"},
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := json.Marshal(map[string]string{"action": args[0]})
		if err != nil {
			return eris.Wrap(err, "encode scheduler request")
		}

		resp, err := http.Post(
			defaultAddr(schedulerAddr)+"/discovery/scheduler",
			"application/json",
			bytes.NewReader(payload),
		)
		if err != nil {
			return eris.Wrap(err, "reach daemon")
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "read daemon response")
		}
		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("daemon returned %d: %s", resp.StatusCode, string(body))
		}

		fmt.Println(string(body))
		return nil
	},
}

func init() {
	schedulerCmd.Flags().StringVar(&schedulerAddr, "addr", "", "daemon address (default http://localhost:<config port>)")
	rootCmd.AddCommand(schedulerCmd)
}
