package environ

import "testing"

func TestSnapshotInjectsHostPaths(t *testing.T) {
	t.Setenv("LIVEPLUGIN_TEST_VAR", "hello")

	env := Snapshot("/plugins", "/libs")

	if env["LIVEPLUGIN_TEST_VAR"] != "hello" {
		t.Errorf("process env not included: got %q", env["LIVEPLUGIN_TEST_VAR"])
	}
	if env[KeyPluginsPath] != "/plugins" {
		t.Errorf("%s = %q, want %q", KeyPluginsPath, env[KeyPluginsPath], "/plugins")
	}
	if env[KeyLibsPath] != "/libs" {
		t.Errorf("%s = %q, want %q", KeyLibsPath, env[KeyLibsPath], "/libs")
	}
}

func TestSnapshotSkipsEmptyHostPaths(t *testing.T) {
	env := Snapshot("", "")

	if _, ok := env[KeyPluginsPath]; ok {
		t.Errorf("%s should not be set", KeyPluginsPath)
	}
	if _, ok := env[KeyLibsPath]; ok {
		t.Errorf("%s should not be set", KeyLibsPath)
	}
}

func TestWithScriptCopies(t *testing.T) {
	env := map[string]string{"A": "1"}

	out := WithScript(env, "/plugins/foo/plugin.lua")

	if out[KeyThisScript] != "/plugins/foo/plugin.lua" {
		t.Errorf("%s = %q", KeyThisScript, out[KeyThisScript])
	}
	if out["A"] != "1" {
		t.Errorf("existing entries not copied: A = %q", out["A"])
	}
	if _, ok := env[KeyThisScript]; ok {
		t.Error("WithScript mutated its input")
	}
}
