package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/personalize"
	"github.com/physai/textbook-backend/pkg/ollama"
)

// Dev smoke test: sends one question through the generation client using the
// default personalization instruction, without the rest of the pipeline.
func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:11434", "Ollama base URL")
		model    = flag.String("model", "llama3.2", "model name")
		question = flag.String("q", "What is a zero-moment point?", "question to ask")
	)
	flag.Parse()

	cfg := config.OllamaConfig{
		BaseURL: *baseURL,
		Timeout: 30 * time.Second,
	}
	client, err := ollama.NewDefaultClient(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()
	res, err := client.Generate(ctx, ollama.GenerateInput{
		Model:  *model,
		System: personalize.DefaultInstruction,
		Prompt: *question,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(res.Text)
	fmt.Printf("meta: %+v\n", res.Meta)
}
