package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func command(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func stringFlag(t *testing.T, cmd *cli.Command, name string) *cli.StringFlag {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	t.Fatalf("string flag %q not found on %q", name, cmd.Name)
	return nil
}

func TestAppCommands(t *testing.T) {
	app := newApp()

	assert.Equal(t, "revec", app.Name)
	for _, name := range []string{"reembed", "status", "normalize-phones", "import-agents", "setup-template"} {
		assert.NotNil(t, command(t, app, name).Action, "%s must have an action", name)
	}
}

func TestGlobalFlagDefaults(t *testing.T) {
	app := newApp()

	var logLevel, envFile *cli.StringFlag
	for _, flag := range app.Flags {
		if f, ok := flag.(*cli.StringFlag); ok {
			switch f.Name {
			case "log-level":
				logLevel = f
			case "env-file":
				envFile = f
			}
		}
	}
	require.NotNil(t, logLevel)
	assert.Equal(t, "info", logLevel.Value)
	require.NotNil(t, envFile)
	assert.Equal(t, ".env", envFile.Value)
}

func TestImportAgentsRequiresFile(t *testing.T) {
	err := newApp().Run([]string{"revec", "import-agents"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestSetupTemplateNameDefault(t *testing.T) {
	cmd := command(t, newApp(), "setup-template")
	assert.Equal(t, "real-estate-template", stringFlag(t, cmd, "name").Value)
}

func TestReembedOverrideFlagsHaveNoDefaults(t *testing.T) {
	cmd := command(t, newApp(), "reembed")
	assert.Empty(t, stringFlag(t, cmd, "index").Value)
	assert.Empty(t, stringFlag(t, cmd, "progress-file").Value)
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"WARN", false},
		{"Error", false},
		{"verbose", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			app := &cli.App{
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-level", Value: tt.level},
				},
				Before: setupLogger,
				Action: func(c *cli.Context) error { return nil },
			}
			err := app.Run([]string{"revec"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestInvalidLogLevelRejectedBeforeCommand(t *testing.T) {
	err := newApp().Run([]string{"revec", "--log-level", "loud", "status"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
