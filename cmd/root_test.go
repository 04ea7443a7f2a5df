package cmd

import (
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCMD.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"server", "ingest"} {
		if !names[want] {
			t.Errorf("Expected subcommand %s to be registered", want)
		}
	}

	if rootCMD.Name() != "b3history" {
		t.Errorf("Expected root command b3history, got %s", rootCMD.Name())
	}

	if rootCMD.Run == nil {
		t.Error("Expected root command to start the server when no subcommand is given")
	}
}

func TestIngestRequiresDirectory(t *testing.T) {
	if err := ingestCMD.Args(ingestCMD, nil); err == nil {
		t.Error("Expected error when no data directory is given")
	}
	if err := ingestCMD.Args(ingestCMD, []string{"./data"}); err != nil {
		t.Errorf("Expected one directory to be accepted, got %v", err)
	}
}

func TestEnvFileFlagDefault(t *testing.T) {
	flag := rootCMD.PersistentFlags().Lookup("env-file")
	if flag == nil {
		t.Fatal("Expected --env-file flag")
	}
	if flag.DefValue != ".env" {
		t.Errorf("Expected default .env, got %s", flag.DefValue)
	}
}
