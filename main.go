package main

import (
	"context"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"time"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
	"github.com/Atractapp/legito-api-testing-sub002/apitests"
	"github.com/Atractapp/legito-api-testing-sub002/config"
	"github.com/Atractapp/legito-api-testing-sub002/endpoints"
	"github.com/Atractapp/legito-api-testing-sub002/framework"
	"github.com/Atractapp/legito-api-testing-sub002/loadtest"
	"github.com/Atractapp/legito-api-testing-sub002/stubapi"
)

const statusQueryTimeout = time.Second * 10

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	cfg, cleanup, err := resolveConfig(&params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %s\n", err)
		os.Exit(1)
	}
	defer cleanup()

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	harness, err := framework.NewTestHarness(cfg, statusQueryTimeout, mainDebugLogger, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Target API error: %s\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Target: %s (%s)\n", harness.TargetInfo().Description, cfg.BaseURL)
	framework.PrintFilterDescription(harness, params.filters, apitests.AllCapabilities)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := apitests.RunTestSuite(harness, params.filters.AsFilter, testLogger)

	fmt.Println()
	PrintResults(results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To rerun only the failed tests:")
		fmt.Printf("  %s\n", params.rerunCommand(results.Failures))
		os.Exit(1)
	}

	if params.loadUsers > 0 {
		if err := runLoadPhase(&params, harness.Session()); err != nil {
			fmt.Fprintf(os.Stderr, "Load run error: %s\n", err)
			os.Exit(1)
		}
	}
}

// resolveConfig produces the session configuration either from the config
// file or, in selftest mode, from a built-in stub API started in-process.
func resolveConfig(params *commandParams) (apiclient.Config, func(), error) {
	if params.selfTest {
		server := httptest.NewServer(stubapi.New())
		cfg := apiclient.Config{
			BaseURL:  server.URL,
			Username: stubapi.DefaultUsername,
			Password: stubapi.DefaultPassword,
			Categories: map[string]apiclient.CategoryConfig{
				endpoints.CategoryDocumentRecords: {Capacity: 10, RefillPerSecond: 20},
				endpoints.CategoryObjectRecords:   {Capacity: 10, RefillPerSecond: 20},
				endpoints.CategoryReferenceData:   {Capacity: 10, RefillPerSecond: 20},
			},
		}
		return cfg, server.Close, nil
	}

	cfg, err := config.Load(params.configPath)
	if err != nil {
		return apiclient.Config{}, func() {}, err
	}
	if params.baseURL != "" {
		cfg.BaseURL = params.baseURL
	}
	return cfg, func() {}, nil
}

func runLoadPhase(params *commandParams, session *apiclient.Client) error {
	fmt.Println()
	fmt.Println("Running load phase")

	scenario := loadtest.Scenario{
		Name:     "standard mix",
		Users:    params.loadUsers,
		Duration: params.loadDuration,
	}
	runner := loadtest.NewRunner(scenario, loadtest.StandardOperations(session), nil)

	report, err := runner.Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(report)

	stats := session.Stats()
	fmt.Printf("Session totals: %d requests, %d attempts, %d retries, %d auth retries, %d failures, %d logins\n",
		stats.Requests, stats.Attempts, stats.Retries, stats.AuthRetries, stats.Failures, stats.LoginCount)
	return nil
}
