package main

import (
	"github.com/readloom/readloom/internal/server"
	"github.com/readloom/readloom/internal/util"
	"github.com/readloom/readloom/pkg/logger"
	"github.com/readloom/readloom/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
