/*
main.go - Application entry point

PURPOSE:
  Runs the planner command line. See cli/ for the commands:

    planner serve        HTTP API with graceful shutdown
    planner simulate     Offline scenario projection
    planner strategies   Payoff strategy catalog
    planner scenarios    Built-in scenarios

ENVIRONMENT:
  Read from .env and the environment, see config/config.go:
  PORT, CORS_ORIGINS, DATA_BACKEND, SQLITE_DB_PATH, HISTORICAL_MONTHS,
  FUTURE_MONTHS, DEFAULT_STRATEGY, LOG_LEVEL, LOG_FORMAT, ROLLOVER_INTERVAL
*/
package main

import "github.com/warp/budget-engine/cli"

func main() {
	cli.Execute()
}
