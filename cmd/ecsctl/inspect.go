package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Fetch and print a running scheduler's debug snapshot",
	Long: `Inspect calls a running "ecsctl run" instance's debug endpoint
(only served when that instance was built with -tags debug) and
pretty-prints the returned phase/frame/batch snapshot.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("addr", "127.0.0.1:9090", "Address of a running ecsctl run instance's metrics/debug server")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	resp, err := http.Get(fmt.Sprintf("http://%s/debug/inspect", addr))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %s: %s (is the target built with -tags debug?)", addr, resp.Status, body)
	}

	var snap any
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
