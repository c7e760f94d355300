// ABOUTME: Minimal flag parsing for jardin-gateway subcommands
// ABOUTME: Accepts "--name value" and "--name=value" for a fixed set of names

package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// parseFlags reads --name value pairs, rejecting names not in allowed.
func parseFlags(args []string, allowed ...string) (map[string]string, error) {
	flags := make(map[string]string)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s", arg)
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !slices.Contains(allowed, name) {
			return nil, fmt.Errorf("unknown flag: %s", arg)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--%s requires a value", name)
			}
			value = args[i+1]
			i++
		}
		flags[name] = value
	}
	return flags, nil
}

// requireID returns flags[name] as a positive user or conversation ID.
func requireID(flags map[string]string, name string) (int64, error) {
	raw, ok := flags[name]
	if !ok {
		return 0, fmt.Errorf("--%s flag is required", name)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("--%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}
