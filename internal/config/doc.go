// Package config provides centralized configuration management for the
// CAMELS rating service and CLI. It loads configuration from several sources,
// validates it, and lays out the directories the application reads and writes.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), including a local .env file
//	2. A YAML file passed to LoadFrom, else named by CAMELS_CONFIG, else
//	   camels.yaml / configs/camels.yaml in the working directory
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CAMELS_<SECTION>_<KEY>:
//
//	CAMELS_SERVER_PORT=8080
//	CAMELS_LOGGING_LEVEL=debug
//	CAMELS_ENGINE_SCHEME_FILE=conservative.yaml
//	CAMELS_ENGINE_BENCHMARK_METHOD=ratio_of_means
//	CAMELS_ENGINE_MAX_CONCURRENCY=8
//	CAMELS_SHEETS_SPREADSHEET_ID=1AbC...
//
// # Path Management
//
// Paths are resolved relative to the executable unless a base directory is
// configured:
//
//	paths, err := cfg.ResolvePaths()
//	reportPath := paths.GetReportPath("ratings.xlsx")
//	schemePath := paths.GetSchemePath("default.yaml")
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
