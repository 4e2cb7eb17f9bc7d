// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

// Command democli is an interactive terminal client for the conversational
// product recommendation service: it drives POST /api/v1/chat one turn at
// a time, printing questions/quick replies until the service returns
// recommendations, and also exposes one-shot subcommands for
// /recommend, /recommend/compare, and /status. Modeled on
// liliang-cn/sqvect's cmd/sqvect cobra layout: a root command holding
// shared flags, one subcommand per server operation.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	sessionID  string
	httpClient = &http.Client{Timeout: 30 * time.Second}
)

var rootCmd = &cobra.Command{
	Use:   "democli",
	Short: "Interactive demo client for the product recommendation service",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session with the recommendation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChatLoop()
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run one-shot recommend with the given filters/preferences JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		filtersJSON, _ := cmd.Flags().GetString("filters")
		prefsJSON, _ := cmd.Flags().GetString("preferences")
		method, _ := cmd.Flags().GetString("method")

		body := map[string]interface{}{
			"filters":     mustParseJSONObject(filtersJSON),
			"preferences": mustParseJSONObject(prefsJSON),
			"method":      method,
		}
		return postAndPrint("/api/v1/recommend", body)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run coverage-risk and embedding-similarity side by side",
	RunE: func(cmd *cobra.Command, args []string) error {
		filtersJSON, _ := cmd.Flags().GetString("filters")
		prefsJSON, _ := cmd.Flags().GetString("preferences")
		body := map[string]interface{}{
			"filters":     mustParseJSONObject(filtersJSON),
			"preferences": mustParseJSONObject(prefsJSON),
		}
		return postAndPrint("/api/v1/recommend/compare", body)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the service's readiness status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := httpClient.Get(serverAddr + "/api/v1/status")
		if err != nil {
			return fmt.Errorf("status request failed: %w", err)
		}
		defer resp.Body.Close()
		return printResponseBody(resp)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "http://127.0.0.1:8080", "recommendation service base URL")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "existing session id to resume")

	recommendCmd.Flags().String("filters", "{}", "JSON object of explicit filters")
	recommendCmd.Flags().String("preferences", "{}", "JSON object of preferences")
	recommendCmd.Flags().String("method", "", "coverage_risk or embedding_similarity (default: server configured)")

	compareCmd.Flags().String("filters", "{}", "JSON object of explicit filters")
	compareCmd.Flags().String("preferences", "{}", "JSON object of preferences")

	rootCmd.AddCommand(chatCmd, recommendCmd, compareCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runChatLoop drives the interview one turn at a time from stdin, printing
// questions/quick replies until a "recommendations" or "comparison"
// response type ends the visible exchange.
func runChatLoop() error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Tell me what you're looking for (type 'quit' to exit).")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "quit" || message == "exit" {
			return nil
		}

		reqBody := map[string]interface{}{
			"message":    message,
			"session_id": sessionID,
		}
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode chat request: %w", err)
		}

		resp, err := httpClient.Post(serverAddr+"/api/v1/chat", "application/json", bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("chat request failed: %w", err)
		}

		var result struct {
			Data struct {
				ResponseType string   `json:"response_type"`
				Message      string   `json:"message"`
				SessionID    string   `json:"session_id"`
				QuickReplies []string `json:"quick_replies"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			resp.Body.Close()
			return fmt.Errorf("decode chat response: %w", err)
		}
		resp.Body.Close()

		sessionID = result.Data.SessionID
		fmt.Println(result.Data.Message)
		if len(result.Data.QuickReplies) > 0 {
			fmt.Println("  quick replies:", strings.Join(result.Data.QuickReplies, " | "))
		}
		if result.Data.ResponseType == "recommendations" || result.Data.ResponseType == "comparison" {
			fmt.Println("(ask a follow-up, or 'quit' to exit)")
		}
	}
}

func postAndPrint(path string, body map[string]interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := httpClient.Post(serverAddr+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()
	return printResponseBody(resp)
}

func printResponseBody(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func mustParseJSONObject(s string) map[string]interface{} {
	if strings.TrimSpace(s) == "" {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid JSON %q, using empty object: %v\n", s, err)
		return map[string]interface{}{}
	}
	return out
}
