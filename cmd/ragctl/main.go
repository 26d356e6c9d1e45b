package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dokufrage/dokufrage/client"
	"github.com/dokufrage/dokufrage/config"
	"github.com/dokufrage/dokufrage/tui"
)

func main() {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Konfiguration konnte nicht geladen werden: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "--server" {
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: ragctl --server <url>")
			os.Exit(1)
		}
		cfg.ServerURL = os.Args[2]
		if err := config.SaveClientConfig(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Konfiguration konnte nicht gespeichert werden: %v\n", err)
			os.Exit(1)
		}
	}

	// Stdout belongs to the TUI; diagnostics go to a file.
	if f, err := tea.LogToFile("ragctl.log", "ragctl"); err == nil {
		defer f.Close()
	}

	model := tui.NewModel(client.New(cfg.ServerURL))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ragctl beendet mit Fehler: %v\n", err)
		os.Exit(1)
	}
}
