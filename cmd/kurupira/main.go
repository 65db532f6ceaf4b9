// Command kurupira starts the Link Protocol and Network Protocol modules
// from a pair of JSON configuration files and runs until interrupted,
// mirroring the teacher's main.go signal-handling shape (spec §9).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kurupira"
	"kurupira/infrastructure/config"
	"kurupira/infrastructure/logging"
)

func main() {
	lpConfigPath := flag.String("lp-config", "lp.json", "path to the Link Protocol configuration file")
	npConfigPath := flag.String("np-config", "np.json", "path to the Network Protocol configuration file")
	flag.Parse()

	log := logging.NewStdLogger()

	lpCfg := config.ReadLP(*lpConfigPath, log)
	npCfg := config.ReadNP(*npConfigPath, log)

	daemon, err := kurupira.Initialize(lpCfg, npCfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kurupira: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigChan
		log.Printf("kurupira: interrupt received, shutting down")
		cancel()
	}()

	if err := daemon.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("kurupira: run: %v", err)
	}
	if err := daemon.Finalize(); err != nil {
		log.Printf("kurupira: finalize: %v", err)
	}
}
