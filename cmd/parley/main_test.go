package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate keeps tests away from any real config file or API key on the
// machine running them.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	orig, _ := os.Getwd()
	os.Chdir(dir)
	t.Cleanup(func() { os.Chdir(orig) })
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("HOME", dir)
}

func runCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), strings.NewReader(stdin), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

func TestRun_Usage(t *testing.T) {
	isolate(t)
	for _, flag := range []string{"-h", "-help", "--help"} {
		out, _, err := runCmd(t, "", flag)
		if err != nil {
			t.Fatalf("run(%s) error: %v", flag, err)
		}
		if !strings.Contains(out, "Usage: parley") {
			t.Errorf("run(%s) output missing usage:\n%s", flag, out)
		}
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	isolate(t)
	_, _, err := runCmd(t, "", "-bogus")
	if err == nil || !strings.Contains(err.Error(), "unknown flag") {
		t.Errorf("run(-bogus) error = %v, want unknown flag", err)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	isolate(t)
	_, _, err := runCmd(t, "", "launch")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("run(launch) error = %v, want unknown command", err)
	}
}

func TestRun_BadOutputFormat(t *testing.T) {
	isolate(t)
	_, _, err := runCmd(t, "", "-o", "yaml", "version")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("error = %v, want unknown output format", err)
	}
}

func TestRunVersion_Text(t *testing.T) {
	isolate(t)
	out, _, err := runCmd(t, "", "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.Contains(out, "Parley") {
		t.Errorf("version output missing name:\n%s", out)
	}
	if !strings.Contains(out, "go_version:") {
		t.Errorf("version output missing go_version:\n%s", out)
	}
}

func TestRunVersion_JSON(t *testing.T) {
	isolate(t)
	out, _, err := runCmd(t, "", "-o", "json", "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("version -o json is not valid JSON: %v\noutput: %s", err, out)
	}
	if info["version"] == "" {
		t.Errorf("version field missing from %v", info)
	}
}

func TestRunAsk_Local(t *testing.T) {
	isolate(t)
	out, _, err := runCmd(t, "", "ask", "hi")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	if !strings.Contains(out, "Hello! I am your local assistant.") {
		t.Errorf("ask output = %q, want greeting", out)
	}
}

func TestRunAsk_JoinsArguments(t *testing.T) {
	isolate(t)
	out, _, err := runCmd(t, "", "ask", "echo", "Hello", "World")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	if strings.TrimSpace(out) != "Hello World" {
		t.Errorf("ask output = %q, want %q", strings.TrimSpace(out), "Hello World")
	}
}

func TestRunAsk_NoQuestion(t *testing.T) {
	isolate(t)
	_, _, err := runCmd(t, "", "ask")
	if err == nil || !strings.Contains(err.Error(), "usage: parley ask") {
		t.Errorf("error = %v, want ask usage", err)
	}
}

func TestRunAsk_LocalFlagWinsOverKey(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	// -local keeps the rule table in charge; no network is touched.
	out, _, err := runCmd(t, "", "-local", "ask", "hi")
	if err != nil {
		t.Fatalf("ask error: %v", err)
	}
	if !strings.Contains(out, "Hello! I am your local assistant.") {
		t.Errorf("ask output = %q, want local greeting", out)
	}
}

func TestRunChat_Script(t *testing.T) {
	isolate(t)
	out, _, err := runCmd(t, "hi\n/exit\n", "chat")
	if err != nil {
		t.Fatalf("chat error: %v", err)
	}
	if !strings.Contains(out, "Small CLI AI assistant.") {
		t.Errorf("chat output missing banner:\n%s", out)
	}
	if !strings.Contains(out, "Hello! I am your local assistant.") {
		t.Errorf("chat output missing greeting:\n%s", out)
	}
}

func TestRunChat_IsDefaultCommand(t *testing.T) {
	isolate(t)
	out, _, err := runCmd(t, "")
	if err != nil {
		t.Fatalf("bare run error: %v", err)
	}
	if !strings.Contains(out, "Small CLI AI assistant.") {
		t.Errorf("bare invocation should start the shell:\n%s", out)
	}
}

func TestLoadConfig_ExplicitMissing(t *testing.T) {
	isolate(t)
	_, _, err := loadConfig("/nonexistent/parley.yaml")
	if err == nil {
		t.Fatal("explicit missing config should error")
	}
}

func TestLoadConfig_ImplicitMissingUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, path, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty for defaults", path)
	}
	if cfg.OpenAI.Model == "" {
		t.Error("defaults should carry a model")
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "parley.yaml")
	os.WriteFile(path, []byte("openai:\n  model: from-file\n"), 0600)
	t.Setenv("OPENAI_MODEL", "from-env")

	cfg, gotPath, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if gotPath != path {
		t.Errorf("path = %q, want %q", gotPath, path)
	}
	if cfg.OpenAI.Model != "from-env" {
		t.Errorf("model = %q, want env to win", cfg.OpenAI.Model)
	}
}

func TestRun_BadConfigLevel(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "parley.yaml")
	os.WriteFile(path, []byte("logging:\n  level: shouty\n"), 0600)

	_, _, err := runCmd(t, "", "-config", path, "ask", "hi")
	if err == nil || !strings.Contains(err.Error(), "unknown log level") {
		t.Errorf("error = %v, want unknown log level", err)
	}
}
