package main

import (
	"os"

	"github.com/linkshare/linkshare/backend/session-store/cmd"
	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
)

func main() {
	if err := cmd.NewApp().Run(os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}
