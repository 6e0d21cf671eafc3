package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run an end-to-end smoke test against a running server",
	Long: `Walk the public API the way a client would:

  health -> root -> create conversation -> list -> send message -> list messages

Sending a message calls the configured LLM provider, so expect a few seconds of latency.`,
	RunE: runSmoke,
}

var (
	smokeBaseURL string
	smokeToken   string
	smokeMessage string
	smokeTimeout time.Duration
)

func init() {
	smokeCmd.Flags().StringVar(&smokeBaseURL, "base-url", "", "API base URL (defaults to CHATBOT_API_URL)")
	smokeCmd.Flags().StringVar(&smokeToken, "token", "", "Bearer token (see the token command)")
	smokeCmd.Flags().StringVar(&smokeMessage, "message", "Hello! Can you help me plan a trip?", "Message to send")
	smokeCmd.Flags().DurationVar(&smokeTimeout, "timeout", 90*time.Second, "Per-request timeout")
}

type smokeConversation struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type smokeMessageResult struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type smokeStep struct {
	name     string
	method   string
	path     string
	body     any
	result   any
	expected int
	auth     bool
}

func runSmoke(cmd *cobra.Command, args []string) error {
	baseURL := smokeBaseURL
	if baseURL == "" {
		baseURL = settings.BaseURL
	}
	if smokeToken == "" {
		return errors.New("--token is required")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(smokeTimeout)

	verbose := isVerbose(cmd)
	run := func(step smokeStep) error {
		start := time.Now()
		req := client.R().SetContext(cmd.Context())
		if step.auth {
			req.SetAuthToken(smokeToken)
		}
		if step.body != nil {
			req.SetBody(step.body)
		}
		if step.result != nil {
			req.SetResult(step.result)
		}

		resp, err := req.Execute(step.method, step.path)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", step.name, err)
			return err
		}
		if resp.StatusCode() != step.expected {
			fmt.Printf("✗ %s: expected %d, got %d\n", step.name, step.expected, resp.StatusCode())
			return fmt.Errorf("%s failed: %s", step.name, resp.String())
		}
		fmt.Printf("✓ %s (%d, %s)\n", step.name, resp.StatusCode(), time.Since(start).Round(time.Millisecond))
		if verbose {
			fmt.Printf("  %s\n", resp.String())
		}
		return nil
	}

	if err := run(smokeStep{name: "health", method: http.MethodGet, path: "/health", expected: http.StatusOK}); err != nil {
		return err
	}
	if err := run(smokeStep{name: "root", method: http.MethodGet, path: "/", expected: http.StatusOK}); err != nil {
		return err
	}

	var conv smokeConversation
	if err := run(smokeStep{
		name:     "create conversation",
		method:   http.MethodPost,
		path:     "/api/v1/conversations",
		body:     map[string]string{"title": "Smoke test conversation"},
		result:   &conv,
		expected: http.StatusCreated,
		auth:     true,
	}); err != nil {
		return err
	}

	var conversations []smokeConversation
	if err := run(smokeStep{
		name:     "list conversations",
		method:   http.MethodGet,
		path:     "/api/v1/conversations",
		result:   &conversations,
		expected: http.StatusOK,
		auth:     true,
	}); err != nil {
		return err
	}

	var reply smokeMessageResult
	if err := run(smokeStep{
		name:     "send message",
		method:   http.MethodPost,
		path:     "/api/v1/conversations/" + conv.ID + "/messages",
		body:     map[string]string{"content": smokeMessage},
		result:   &reply,
		expected: http.StatusCreated,
		auth:     true,
	}); err != nil {
		return err
	}
	fmt.Printf("  assistant: %s\n", reply.Content)

	var messages []smokeMessageResult
	if err := run(smokeStep{
		name:     "list messages",
		method:   http.MethodGet,
		path:     "/api/v1/conversations/" + conv.ID + "/messages",
		result:   &messages,
		expected: http.StatusOK,
		auth:     true,
	}); err != nil {
		return err
	}
	if len(messages) < 2 {
		return fmt.Errorf("expected at least 2 messages, got %d", len(messages))
	}

	fmt.Printf("\nAll checks passed (conversation %s, %d conversations visible)\n", conv.ID, len(conversations))
	return nil
}
