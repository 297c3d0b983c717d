// claude-cli sends one prompt to the Claude API and prints the answer.
package main

import (
	"os"

	"github.com/roelfdiedericks/llmcli/internal/cli"
	"github.com/roelfdiedericks/llmcli/internal/llm"
)

func main() {
	os.Exit(cli.Main(llm.ProviderClaude))
}
