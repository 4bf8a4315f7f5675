// Command chat is a terminal chat console running against the local
// file-backed message store. Conversations survive restarts of the process;
// each run starts a fresh session.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"ai-chat-console/backend/internal/ai"
	"ai-chat-console/backend/internal/chat"
	"ai-chat-console/backend/internal/store"
	"ai-chat-console/backend/pkg/config"
	"ai-chat-console/backend/pkg/di"
	"ai-chat-console/backend/pkg/logger"

	"github.com/joho/godotenv"
)

func newSessionID() string {
	return fmt.Sprintf("session-%d", time.Now().UnixMilli())
}

func main() {
	godotenv.Load()

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = false
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	fileStore, err := store.NewFileStore(cfg.Local.DataDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open data directory: %v\n", err)
		os.Exit(1)
	}

	prefs := store.NewModelPrefs(cfg.Local.DataDir, ai.DefaultModel())
	model := prefs.Load()

	gateway, err := di.NewGateway(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize inference gateway: %v\n", err)
		os.Exit(1)
	}

	controller := chat.New(fileStore, gateway, log, cfg.Inference.MaxTokens)
	sessionID := newSessionID()

	fmt.Println("Chat console. /model <name> to switch models, /models to list, /clear, /quit.")
	fmt.Printf("model: %s\n\n", model)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return

		case line == "/models":
			for _, m := range ai.SupportedModels {
				marker := " "
				if m.Value == model {
					marker = "*"
				}
				fmt.Printf("%s %-22s %s\n", marker, m.Value, m.Label)
			}

		case strings.HasPrefix(line, "/model"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "/model"))
			if name == "" {
				fmt.Printf("model: %s\n", model)
				continue
			}
			model = name
			if err := prefs.Save(model); err != nil {
				fmt.Fprintf(os.Stderr, "failed to save model preference: %v\n", err)
			}
			fmt.Printf("model: %s\n", model)

		case line == "/clear":
			if err := controller.Clear(context.Background(), sessionID); err != nil {
				fmt.Fprintf(os.Stderr, "failed to clear session: %v\n", err)
				continue
			}
			// Session ids are never reused after a clear
			sessionID = newSessionID()
			fmt.Println("conversation cleared")

		default:
			reply, err := controller.Submit(context.Background(), line, model, sessionID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			fmt.Printf("\n%s\n\n", reply.Content)
		}
	}
}
