// Package config loads SheetPulse configuration.
//
// Values come from Default(), then an optional YAML file (config.yaml,
// configs/config.yaml or the file named by SHEETPULSE_CONFIG_FILE), then
// environment variables prefixed with SHEETPULSE:
//
//	SHEETPULSE_SERVER_PORT=9000
//	SHEETPULSE_DASHBOARD_WORKBOOK_PATH=prices.xlsx
//	SHEETPULSE_EXPORT_RENDERER=static
//
// Paths resolves the data, exports, cache, logs and web directories against a
// base directory, which defaults to the directory of the running executable.
package config
