package cli

import "testing"

func TestAllCommandsRegistered(t *testing.T) {
	want := []string{
		"fact", "approval", "approve", "deny", "defer",
		"rule", "budget", "check", "audit", "watch", "version",
	}
	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	cases := map[string][]string{
		"fact":     {"append", "list"},
		"approval": {"create", "list"},
		"rule":     {"add", "kill", "restart", "list"},
		"budget":   {"status"},
		"audit":    {"verify"},
	}
	for parent, subs := range cases {
		var found bool
		for _, c := range rootCmd.Commands() {
			if c.Name() != parent {
				continue
			}
			found = true
			have := make(map[string]bool)
			for _, sc := range c.Commands() {
				have[sc.Name()] = true
			}
			for _, s := range subs {
				if !have[s] {
					t.Errorf("%s: subcommand %q not registered", parent, s)
				}
			}
		}
		if !found {
			t.Errorf("command %q not registered", parent)
		}
	}
}
