package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/coreos/go-systemd/daemon"
	"github.com/cyclopcam/logs"
	"github.com/mirrorcam/mirror/server"
)

func main() {
	parser := argparse.NewParser("mirror", "Virtual try-on tracking server")
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "mirror.json"})
	port := parser.String("p", "port", &argparse.Options{Help: "HTTP listen port", Default: ":8080"})
	hotReloadWWW := parser.Flag("", "hot", &argparse.Options{Help: "Hot reload www instead of embedding into binary", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configFilePath)
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	s, err := server.NewServer(logger, cfg)
	if err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
	s.HotReloadWWW = *hotReloadWWW
	s.ListenForKillSignals()

	// Tell systemd that we're alive
	daemon.SdNotify(false, daemon.SdNotifyReady)

	if err := s.ListenHTTP(*port); err != nil {
		logger.Infof("ListenHTTP returned: %v", err)
	}
}
