// Command ragdesk is a retrieval-augmented knowledge base and chat assistant.
package main

import (
	"os"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragdesk/internal/app"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(func(configDir string) (*cli.Services, func() error, error) {
		a, err := app.New(app.Options{ConfigDir: configDir})
		if err != nil {
			return nil, nil, err
		}
		return &cli.Services{
			Documents:   a.Documents,
			Retrieval:   a.Retrieval,
			Chat:        a.Chat,
			Settings:    a.Settings,
			AppSettings: a.AppSettings,
		}, a.Close, nil
	})

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
